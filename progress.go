package siglog

// progress reports, at ten evenly spaced points, how far a reader has
// gone through the rows of its primary signal.
type progress struct {
	log    Logger
	file   string
	signal string
	total  int
	marks  map[int]int // row index -> percentage
}

func newProgress(log Logger, file, signal string, total int) *progress {
	p := &progress{
		log:    log,
		file:   file,
		signal: signal,
		total:  total,
		marks:  make(map[int]int, 10),
	}
	for k := 9; k >= 0; k-- {
		// Small tables map several marks onto the same row; keep the
		// lowest percentage.
		p.marks[k*total/10] = k * 10
	}
	return p
}

// read records that row i of the primary signal was just read.
func (p *progress) read(i int) {
	if p == nil {
		return
	}
	if pct, ok := p.marks[i]; ok {
		p.log.Infof("read %d%% (%d/%d) of %s (tracking signal %s)", pct, i, p.total, p.file, p.signal)
	}
}
