// Package model contains core data types for the project.
package model

import (
	"encoding/json"
	"fmt"
)

// EventType is the discriminant carried by every frame.
type EventType string

const (
	Memory  EventType = "Memory"  // Memory carries a MemoryInfo payload.
	Cpu     EventType = "Cpu"     // Cpu carries a CpuList payload.
	Disk    EventType = "Disk"    // Disk carries a DiskList payload.
	Network EventType = "Network" // Network carries a NetworkList payload.
)

// Payload is implemented only by the metric categories of this package.
type Payload interface {
	EventType() EventType
	payload()
}

// Event is one tagged metric category produced by a sampling tick.
type Event struct {
	Type EventType `json:"Type"` // Category discriminant.
	Data Payload   `json:"Data"` // Category payload, matches Type.
}

// NewMemoryEvent wraps memory readings into an Event.
func NewMemoryEvent(m MemoryInfo) Event { return Event{Type: Memory, Data: m} }

// NewCpuEvent wraps per-cpu readings into an Event.
func NewCpuEvent(c CpuList) Event { return Event{Type: Cpu, Data: c} }

// NewDiskEvent wraps disk readings into an Event.
func NewDiskEvent(d DiskList) Event { return Event{Type: Disk, Data: d} }

// NewNetworkEvent wraps network interface readings into an Event.
func NewNetworkEvent(n NetworkList) Event { return Event{Type: Network, Data: n} }

type wireEvent struct {
	Type EventType       `json:"Type"`
	Data json.RawMessage `json:"Data"`
}

// MarshalJSON encodes the event as {"Type": ..., "Data": ...}.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Data == nil {
		return nil, fmt.Errorf("event %q has no payload", e.Type)
	}
	if e.Data.EventType() != e.Type {
		return nil, fmt.Errorf("event type %q does not match payload type %q", e.Type, e.Data.EventType())
	}
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireEvent{Type: e.Type, Data: data})
}

// UnmarshalJSON decodes Data according to the Type discriminant.
func (e *Event) UnmarshalJSON(b []byte) error {
	var w wireEvent
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}

	var p Payload
	switch w.Type {
	case Memory:
		var m MemoryInfo
		if err := json.Unmarshal(w.Data, &m); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		p = m
	case Cpu:
		var c CpuList
		if err := json.Unmarshal(w.Data, &c); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		p = c
	case Disk:
		var d DiskList
		if err := json.Unmarshal(w.Data, &d); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		p = d
	case Network:
		var n NetworkList
		if err := json.Unmarshal(w.Data, &n); err != nil {
			return fmt.Errorf("decode %s payload: %w", w.Type, err)
		}
		p = n
	default:
		return fmt.Errorf("unknown event type %q", w.Type)
	}

	e.Type = w.Type
	e.Data = p
	return nil
}

// MemoryInfo holds RAM and swap usage in bytes.
type MemoryInfo struct {
	Total     uint64 `json:"Total"`
	Free      uint64 `json:"Free"`
	Used      uint64 `json:"Used"`
	SwapTotal uint64 `json:"SwapTotal"`
	SwapFree  uint64 `json:"SwapFree"`
	SwapUsed  uint64 `json:"SwapUsed"`
}

func (MemoryInfo) EventType() EventType { return Memory }
func (MemoryInfo) payload()             {}

// CpuInfo describes one logical CPU.
type CpuInfo struct {
	Name      string  `json:"Name"`
	VendorID  string  `json:"VendorId"`
	Brand     string  `json:"Brand"`
	Frequency uint64  `json:"Frequency"` // MHz
	Usage     float64 `json:"Usage"`     // Percent since previous sample.
}

// CpuList is the Cpu category payload.
type CpuList []CpuInfo

func (CpuList) EventType() EventType { return Cpu }
func (CpuList) payload()             {}

// DiskKind is the storage medium of a disk.
type DiskKind string

const (
	HDD         DiskKind = "HDD"
	SSD         DiskKind = "SSD"
	UnknownDisk DiskKind = "UNKNOWN"
)

// DiskInfo describes one mounted filesystem.
type DiskInfo struct {
	Kind           DiskKind `json:"Kind"`
	DeviceName     string   `json:"DeviceName"`
	FileSystem     string   `json:"FileSystem"`
	MountPoint     string   `json:"MountPoint"`
	TotalSpace     uint64   `json:"TotalSpace"`
	AvailableSpace uint64   `json:"AvailableSpace"`
	IsRemovable    bool     `json:"IsRemovable"`
}

// DiskList is the Disk category payload.
type DiskList []DiskInfo

func (DiskList) EventType() EventType { return Disk }
func (DiskList) payload()             {}

// NetworkInfo holds cumulative counters of one network interface.
type NetworkInfo struct {
	Name               string `json:"Name"`
	MacAddr            string `json:"MacAddr"`
	Received           uint64 `json:"Received"`
	Transmitted        uint64 `json:"Transmitted"`
	PacketsReceived    uint64 `json:"PacketsReceived"`
	PacketsTransmitted uint64 `json:"PacketsTransmitted"`
	ErrorReceived      uint64 `json:"ErrorReceived"`
	ErrorTransmitted   uint64 `json:"ErrorTransmitted"`
}

// NetworkList is the Network category payload.
type NetworkList []NetworkInfo

func (NetworkList) EventType() EventType { return Network }
func (NetworkList) payload()             {}

// Snapshot is the set of readings collected at one sampling tick.
type Snapshot struct {
	Memory   MemoryInfo
	Cpus     CpuList
	Disks    DiskList
	Networks NetworkList
}

// Events splits the snapshot into category events, always in the order
// Memory, Cpu, Disk, Network.
func (s Snapshot) Events() []Event {
	return []Event{
		NewMemoryEvent(s.Memory),
		NewCpuEvent(s.Cpus),
		NewDiskEvent(s.Disks),
		NewNetworkEvent(s.Networks),
	}
}
