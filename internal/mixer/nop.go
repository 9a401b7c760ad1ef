package mixer

import "fmt"

// NopBackend accepts every operation and produces no sound. Used by commands
// that mutate or inspect scene state without an audio device, and by tests.
type NopBackend struct{}

func NewNopBackend() *NopBackend { return &NopBackend{} }

func (*NopBackend) SetParam(name string, _ float64) error {
	if !knownParam(name) {
		return fmt.Errorf("unknown mixer parameter %q", name)
	}
	return nil
}

func (*NopBackend) Play(int, []byte) error { return nil }
func (*NopBackend) Stop(int) error         { return nil }
func (*NopBackend) PauseAll() error        { return nil }
func (*NopBackend) ResumeAll() error       { return nil }
func (*NopBackend) Close() error           { return nil }

func knownParam(name string) bool {
	if name == MasterVolumeParam {
		return true
	}
	for i := 0; i < NumLayers; i++ {
		if name == LayerVolumeParam(i) || name == WarmthCutoffParam(i) {
			return true
		}
	}
	return false
}
