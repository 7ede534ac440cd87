package fiber

// Owner is the task or continuation a Stack belongs to. The Stack never
// mutates its owner; it only delegates trace recording and the post-restore
// lifecycle callback through this narrow capability set.
type Owner interface {
	// RecordingLevel reports whether the owner records trace events at the
	// given verbosity level.
	RecordingLevel(level int) bool

	// Record receives one trace event emitted by a protocol operation.
	Record(level int, ev Event)

	// OnResume is invoked once control returns into a previously suspended
	// computation.
	OnResume() error
}

// TaskOwner adapts a scheduled task to the Owner capability set. The
// scheduler supplies the resume callback it wants to run when the task is
// restored on a worker.
type TaskOwner struct {
	Recorder Recorder
	Resume   func() error
}

func (o *TaskOwner) RecordingLevel(level int) bool {
	return o.Recorder != nil && o.Recorder.RecordingLevel(level)
}

func (o *TaskOwner) Record(level int, ev Event) {
	if o.Recorder != nil {
		o.Recorder.Record(level, ev)
	}
}

func (o *TaskOwner) OnResume() error {
	if o.Resume == nil {
		return nil
	}
	return o.Resume()
}

// ContinuationOwner adapts a standalone continuation: it can record trace
// events but has no resume callback.
type ContinuationOwner struct {
	Recorder Recorder
}

func (o *ContinuationOwner) RecordingLevel(level int) bool {
	return o.Recorder != nil && o.Recorder.RecordingLevel(level)
}

func (o *ContinuationOwner) Record(level int, ev Event) {
	if o.Recorder != nil {
		o.Recorder.Record(level, ev)
	}
}

func (o *ContinuationOwner) OnResume() error { return nil }
