package wire

// Pool recycles the slices a decode allocates, one free list per buffer
// shape. After a few decodes of a given message shape, steady-state
// decoding performs no slice allocation at all.
//
// A released buffer is cleared before it is stored, so a pooled slice never
// keeps borrowed input bytes alive. Callers must release every acquired
// buffer exactly once, on every exit path.
//
// A Pool is owned by one decode session at a time; it is not safe for
// concurrent use. Run concurrent decodes with one Pool each.
type Pool struct {
	values  [][]SingleValue
	singles [][]Record[SingleValue]
	repeats [][]Record[Repeated]
}

// NewPool creates an empty pool.
func NewPool() *Pool {
	return &Pool{}
}

// GetValues returns an empty value buffer, reusing a released one if
// available.
func (p *Pool) GetValues() []SingleValue {
	if n := len(p.values); n > 0 {
		buf := p.values[n-1]
		p.values = p.values[:n-1]
		return buf
	}
	return nil
}

// PutValues clears a value buffer and stores it for reuse.
func (p *Pool) PutValues(buf []SingleValue) {
	clear(buf)
	p.values = append(p.values, buf[:0])
}

// GetSingleRecords returns an empty singular-field record buffer.
func (p *Pool) GetSingleRecords() []Record[SingleValue] {
	if n := len(p.singles); n > 0 {
		buf := p.singles[n-1]
		p.singles = p.singles[:n-1]
		return buf
	}
	return nil
}

// PutSingleRecords clears a singular-field record buffer and stores it for
// reuse.
func (p *Pool) PutSingleRecords(buf []Record[SingleValue]) {
	clear(buf)
	p.singles = append(p.singles, buf[:0])
}

// GetRepeatedRecords returns an empty repeated-field record buffer.
func (p *Pool) GetRepeatedRecords() []Record[Repeated] {
	if n := len(p.repeats); n > 0 {
		buf := p.repeats[n-1]
		p.repeats = p.repeats[:n-1]
		return buf
	}
	return nil
}

// PutRepeatedRecords clears a repeated-field record buffer and stores it
// for reuse. The per-field value buffers inside are not released here; the
// traversal releases each one as it is consumed.
func (p *Pool) PutRepeatedRecords(buf []Record[Repeated]) {
	clear(buf)
	p.repeats = append(p.repeats, buf[:0])
}

// idle reports the number of buffers currently held across all free lists.
func (p *Pool) idle() int {
	return len(p.values) + len(p.singles) + len(p.repeats)
}
