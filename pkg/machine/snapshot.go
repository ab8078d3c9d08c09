package machine

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gochip8/pkg/cpu"
	"gochip8/pkg/display"
	"gochip8/pkg/memory"
)

const (
	cpuStateEntry    = "cpu_state.json"
	memoryEntry      = "memory.bin"
	framebufferEntry = "framebuffer.bin"
)

// Snapshot serialises the machine into an in-memory ZIP archive holding the
// register file as JSON plus raw memory and framebuffer images.
func (m *Machine) Snapshot() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state, err := json.MarshalIndent(m.CPU.State(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal cpu state: %w", err)
	}
	if err := writeZipEntry(zw, cpuStateEntry, state); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, memoryEntry, m.CPU.Memory().Bytes()); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, framebufferEntry, m.Display.SaveState()); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// Restore applies an archive produced by Snapshot. Every entry is read and
// decoded before any state changes, so a bad archive leaves the machine as
// it was.
func (m *Machine) Restore(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	files := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		files[f.Name] = f
	}

	raw, err := readZipEntry(files, cpuStateEntry)
	if err != nil {
		return err
	}
	var state cpu.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return fmt.Errorf("unmarshal cpu state: %w", err)
	}
	mem, err := readZipEntry(files, memoryEntry)
	if err != nil {
		return err
	}
	fb, err := readZipEntry(files, framebufferEntry)
	if err != nil {
		return err
	}

	if len(mem) != memory.Size {
		return fmt.Errorf("%s: need %d bytes, got %d", memoryEntry, memory.Size, len(mem))
	}
	if len(fb) != display.Width*display.Height {
		return fmt.Errorf("%s: need %d bytes, got %d", framebufferEntry, display.Width*display.Height, len(fb))
	}

	if err := m.CPU.SetState(state); err != nil {
		return fmt.Errorf("restore cpu state: %w", err)
	}
	if err := m.CPU.Memory().Restore(mem); err != nil {
		return err
	}
	if err := m.Display.LoadState(fb); err != nil {
		return err
	}

	if m.cfg.Logger != nil {
		m.cfg.Logger.Info("Snapshot restored")
	}
	return nil
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(files map[string]*zip.File, name string) ([]byte, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
