package vision

import "gocv.io/x/gocv"

// Pool hands out detector instances to concurrent analysis requests. Each
// instance owns its own network, so the pool size bounds how many forward
// passes run at once; requests beyond that block until an instance frees
// up.
type Pool struct {
	detectors chan *Detector
	all       []*Detector
}

// NewPool constructs size detectors sharing the same model files.
func NewPool(size int, newDetector func() *Detector) *Pool {
	if size < 1 {
		size = 1
	}

	p := &Pool{
		detectors: make(chan *Detector, size),
		all:       make([]*Detector, 0, size),
	}
	for i := 0; i < size; i++ {
		d := newDetector()
		p.all = append(p.all, d)
		p.detectors <- d
	}

	return p
}

// DetectPersons borrows a detector for one forward pass and returns it to
// the pool when done.
func (p *Pool) DetectPersons(frame gocv.Mat) ([]Detection, error) {
	d := <-p.detectors
	defer func() { p.detectors <- d }()

	return d.DetectPersons(frame)
}

// Available reports whether the pooled detectors loaded their network.
func (p *Pool) Available() bool {
	return len(p.all) > 0 && p.all[0].Available()
}

// Close releases every detector's network.
func (p *Pool) Close() {
	for _, d := range p.all {
		d.Close()
	}
}
