package instancing

// FrameStats summarizes one frame of culling, upload and draw work.
type FrameStats struct {
	Chunks           int `yaml:"chunks"`
	VisibleChunks    int `yaml:"visible_chunks"`
	VisibleInstances int `yaml:"visible_instances"`
	DrawCalls        int `yaml:"draw_calls"`
	BytesUploaded    int `yaml:"bytes_uploaded"`
}

// Add accumulates o into s.
func (s *FrameStats) Add(o FrameStats) {
	s.Chunks += o.Chunks
	s.VisibleChunks += o.VisibleChunks
	s.VisibleInstances += o.VisibleInstances
	s.DrawCalls += o.DrawCalls
	s.BytesUploaded += o.BytesUploaded
}
