package vm

import (
	"context"
	"fmt"
	"time"

	"github.com/jgaskill/virtadm/internal/domain"
	"github.com/jgaskill/virtadm/internal/safety"
	"github.com/jgaskill/virtadm/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DestructiveTools lists the VM tools that require a confirmation token
// before acting. vm_define is included because defining an existing name
// silently replaces its definition.
var DestructiveTools = []string{
	"vm_define",
	"vm_stop",
	"vm_force_stop",
	"vm_undefine",
}

// Tools returns the tool registrations for all VM lifecycle MCP tools, wired
// to the provided Lifecycle, safety Filter, ConfirmationTracker, and
// AuditLogger.
func Tools(
	mgr Lifecycle,
	filter *safety.Filter,
	confirm *safety.ConfirmationTracker,
	audit *safety.AuditLogger,
) []tools.Registration {
	return []tools.Registration{
		vmList(mgr, audit),
		vmStatus(mgr, filter, audit),
		vmLookup(mgr, filter, audit),
		vmDefine(mgr, filter, confirm, audit),
		vmStart(mgr, filter, audit),
		vmStop(mgr, filter, confirm, audit),
		vmForceStop(mgr, filter, confirm, audit),
		vmUndefine(mgr, filter, confirm, audit),
	}
}

func vmList(mgr Lifecycle, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("vm_list",
		mcp.WithDescription("List all virtual machines with their state and memory."),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		params := map[string]any{}

		vms, err := mgr.ListVMs(ctx)
		if err != nil {
			tools.LogAudit(audit, "vm_list", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "vm_list", params, "ok", start)
		return tools.JSONResult(vms), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmStatus(mgr Lifecycle, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("vm_status",
		mcp.WithDescription("Query the current state of a virtual machine. The state is always re-fetched from the hypervisor."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, "vm_status", params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		state, err := mgr.QueryState(ctx, name)
		if err != nil {
			tools.LogAudit(audit, "vm_status", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "vm_status", params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("VM %q state: %s", name, state)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmLookup(mgr Lifecycle, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("vm_lookup",
		mcp.WithDescription("Look up a virtual machine by name. A missing VM is reported as not found, not as an error."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, "vm_lookup", params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		v, found, err := mgr.LookupVM(ctx, name)
		if err != nil {
			tools.LogAudit(audit, "vm_lookup", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}
		if !found {
			tools.LogAudit(audit, "vm_lookup", params, "not found", start)
			return mcp.NewToolResultText(fmt.Sprintf("VM %q not found", name)), nil
		}

		tools.LogAudit(audit, "vm_lookup", params, "ok", start)
		return tools.JSONResult(v), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmDefine(mgr Lifecycle, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	const toolName = "vm_define"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Define a new virtual machine from name, memory, and vCPU count. Redefines the VM if the name already exists. Requires confirmation."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
		mcp.WithNumber("memory_mib",
			mcp.Required(),
			mcp.Description("Memory size in MiB"),
		),
		mcp.WithNumber("vcpus",
			mcp.Required(),
			mcp.Description("Number of virtual CPUs"),
		),
		mcp.WithString("backend",
			mcp.Description("Virtualization backend (qemu or kvm); defaults to the server's configured backend"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		memory := req.GetInt("memory_mib", 0)
		vcpus := req.GetInt("vcpus", 0)
		backend := req.GetString("backend", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"name": name, "memory_mib": memory, "vcpus": vcpus}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		if !confirm.Confirm(token) {
			desc := fmt.Sprintf("This will define VM %q (%d MiB, %d vCPUs), replacing any existing definition with that name.", name, memory, vcpus)
			return tools.ConfirmPrompt(confirm, toolName, name, desc), nil
		}

		spec := domain.Spec{
			Name:      name,
			MemoryMiB: memory,
			VCPUs:     vcpus,
			Backend:   domain.Backend(backend),
		}
		v, err := mgr.DefineVM(ctx, spec)
		if err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return tools.JSONResult(v), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmStart(mgr Lifecycle, filter *safety.Filter, audit *safety.AuditLogger) tools.Registration {
	tool := mcp.NewTool("vm_start",
		mcp.WithDescription("Start a defined virtual machine."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, "vm_start", params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		if err := mgr.StartVM(ctx, name); err != nil {
			tools.LogAudit(audit, "vm_start", params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, "vm_start", params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("VM %q started", name)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmStop(mgr Lifecycle, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	const toolName = "vm_stop"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Gracefully shut down a running virtual machine via ACPI. The shutdown is asynchronous; poll vm_status to confirm. Requires confirmation."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		if !confirm.Confirm(token) {
			desc := fmt.Sprintf("This will request a graceful ACPI shutdown of VM %q.", name)
			return tools.ConfirmPrompt(confirm, toolName, name, desc), nil
		}

		if err := mgr.StopVM(ctx, name); err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("shutdown requested for VM %q", name)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmForceStop(mgr Lifecycle, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	const toolName = "vm_force_stop"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Forcibly terminate a virtual machine (like pulling the power cord). Safe to call on a VM that is already shut off. Requires confirmation."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		if !confirm.Confirm(token) {
			desc := fmt.Sprintf("This will FORCIBLY terminate VM %q immediately. Unsaved guest data will be lost.", name)
			return tools.ConfirmPrompt(confirm, toolName, name, desc), nil
		}

		if err := mgr.ForceStopVM(ctx, name); err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("VM %q force-stopped", name)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}

func vmUndefine(mgr Lifecycle, filter *safety.Filter, confirm *safety.ConfirmationTracker, audit *safety.AuditLogger) tools.Registration {
	const toolName = "vm_undefine"

	tool := mcp.NewTool(toolName,
		mcp.WithDescription("Remove a virtual machine's persistent definition. The VM must be shut off; disk images are NOT deleted. Requires confirmation."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("VM name"),
		),
		mcp.WithString("confirmation_token",
			mcp.Description("Confirmation token returned by a prior call to this tool"),
		),
	)

	handler := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		name := req.GetString("name", "")
		token := req.GetString("confirmation_token", "")
		params := map[string]any{"name": name}

		if !filter.IsAllowed(name) {
			tools.LogAudit(audit, toolName, params, "denied", start)
			return tools.ErrorResult(fmt.Sprintf("access to VM %q is not allowed", name)), nil
		}

		if !confirm.Confirm(token) {
			desc := fmt.Sprintf("This will permanently remove the definition of VM %q. The disk image is not deleted.", name)
			return tools.ConfirmPrompt(confirm, toolName, name, desc), nil
		}

		if err := mgr.UndefineVM(ctx, name); err != nil {
			tools.LogAudit(audit, toolName, params, "error: "+err.Error(), start)
			return tools.ErrorResult(err.Error()), nil
		}

		tools.LogAudit(audit, toolName, params, "ok", start)
		return mcp.NewToolResultText(fmt.Sprintf("VM %q undefined", name)), nil
	}

	return tools.Registration{Tool: tool, Handler: server.ToolHandlerFunc(handler)}
}
