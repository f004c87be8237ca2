package loader

// Reporter receives lifecycle callbacks from a loader run.
type Reporter interface {
	OnRunStart(manifest Manifest)
	OnFileStart(entry Entry, index int, total int)
	OnRecordSkipped(entry Entry, err error)
	OnFileLoaded(result FileResult)
	OnFileError(entry Entry, err error)
	OnRunComplete(summary *RunSummary)
	// OnRunError is called instead of OnRunComplete when the run aborts.
	OnRunError(err error)
}

// MultiReporter fans callbacks out to several reporters in order.
type MultiReporter []Reporter

func (m MultiReporter) OnRunStart(manifest Manifest) {
	for _, r := range m {
		r.OnRunStart(manifest)
	}
}

func (m MultiReporter) OnFileStart(entry Entry, index int, total int) {
	for _, r := range m {
		r.OnFileStart(entry, index, total)
	}
}

func (m MultiReporter) OnRecordSkipped(entry Entry, err error) {
	for _, r := range m {
		r.OnRecordSkipped(entry, err)
	}
}

func (m MultiReporter) OnFileLoaded(result FileResult) {
	for _, r := range m {
		r.OnFileLoaded(result)
	}
}

func (m MultiReporter) OnFileError(entry Entry, err error) {
	for _, r := range m {
		r.OnFileError(entry, err)
	}
}

func (m MultiReporter) OnRunComplete(summary *RunSummary) {
	for _, r := range m {
		r.OnRunComplete(summary)
	}
}

func (m MultiReporter) OnRunError(err error) {
	for _, r := range m {
		r.OnRunError(err)
	}
}
