package domain

import (
	"encoding/xml"
	"fmt"
	"strconv"
)

// ----------------------------------------------------------------------------
// Domain document tree
// ----------------------------------------------------------------------------

// document mirrors the libvirt domain XML schema for the minimal machine
// shape this manager defines: one disk, one NIC, one console, one graphics
// endpoint. Serializing a typed tree (instead of concatenating strings)
// guarantees every user-supplied value is escaped exactly once, centrally.
type document struct {
	XMLName  xml.Name `xml:"domain"`
	Type     string   `xml:"type,attr"`
	Name     string   `xml:"name"`
	Memory   memory   `xml:"memory"`
	VCPU     int      `xml:"vcpu"`
	OS       osInfo   `xml:"os"`
	Features features `xml:"features"`
	Devices  devices  `xml:"devices"`
}

type memory struct {
	Unit  string `xml:"unit,attr"`
	Value string `xml:",chardata"`
}

type osInfo struct {
	Type osType `xml:"type"`
	Boot boot   `xml:"boot"`
}

type osType struct {
	Arch  string `xml:"arch,attr"`
	Value string `xml:",chardata"`
}

type boot struct {
	Dev string `xml:"dev,attr"`
}

type features struct {
	ACPI struct{} `xml:"acpi"`
	APIC struct{} `xml:"apic"`
}

type devices struct {
	Emulator  string   `xml:"emulator"`
	Disk      disk     `xml:"disk"`
	Interface nic      `xml:"interface"`
	Console   console  `xml:"console"`
	Graphics  graphics `xml:"graphics"`
}

type disk struct {
	Type   string     `xml:"type,attr"`
	Device string     `xml:"device,attr"`
	Driver diskDriver `xml:"driver"`
	Source diskSource `xml:"source"`
	Target diskTarget `xml:"target"`
}

type diskDriver struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
}

type diskSource struct {
	File string `xml:"file,attr"`
}

type diskTarget struct {
	Dev string `xml:"dev,attr"`
	Bus string `xml:"bus,attr"`
}

type nic struct {
	Type   string   `xml:"type,attr"`
	Source nicSrc   `xml:"source"`
	Model  nicModel `xml:"model"`
}

type nicSrc struct {
	Network string `xml:"network,attr"`
}

type nicModel struct {
	Type string `xml:"type,attr"`
}

type console struct {
	Type string `xml:"type,attr"`
}

type graphics struct {
	Type string `xml:"type,attr"`
	Port int    `xml:"port,attr"`
}

// ----------------------------------------------------------------------------
// Builder
// ----------------------------------------------------------------------------

// Build renders the domain XML document for spec. emulatorPath and diskPath
// must already be resolved; a definition is never rendered with an empty
// required field. Build performs no I/O and is deterministic: identical
// arguments always produce a byte-identical document.
func Build(spec Spec, emulatorPath, diskPath string) (string, error) {
	if err := spec.Validate(); err != nil {
		return "", err
	}
	if emulatorPath == "" {
		return "", fmt.Errorf("%w: emulator path is empty", ErrInvalidSpec)
	}
	if diskPath == "" {
		return "", fmt.Errorf("%w: disk path is empty", ErrInvalidSpec)
	}

	doc := document{
		Type: string(spec.Backend),
		Name: spec.Name,
		Memory: memory{
			Unit:  "MiB",
			Value: strconv.Itoa(spec.MemoryMiB),
		},
		VCPU: spec.VCPUs,
		OS: osInfo{
			Type: osType{Arch: "x86_64", Value: "hvm"},
			Boot: boot{Dev: "hd"},
		},
		Devices: devices{
			Emulator: emulatorPath,
			Disk: disk{
				Type:   "file",
				Device: "disk",
				Driver: diskDriver{Name: "qemu", Type: "qcow2"},
				Source: diskSource{File: diskPath},
				Target: diskTarget{Dev: "vda", Bus: "virtio"},
			},
			Interface: nic{
				Type:   "network",
				Source: nicSrc{Network: "default"},
				Model:  nicModel{Type: "virtio"},
			},
			Console:  console{Type: "pty"},
			Graphics: graphics{Type: "vnc", Port: -1},
		},
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal domain document: %w", err)
	}
	return string(out), nil
}
