package binread

// PackedReals decodes a column of n reals stored as runs.
//
// Each run starts with an int16 header h. When h > 0, h literal values
// follow. When h < 0, a single value follows and is repeated -h times.
// A zero header or a run that overflows the column is corrupt.
func (c *Cursor) PackedReals(n int, p Precision) ([]float64, error) {
	if n < 0 {
		return nil, c.corrupt("negative packed column length %d", n)
	}
	// A run header and one value expand to at most 32768 values.
	size := int64(2 + p.RealSize())
	capacity := n
	if rem := c.Remaining(); rem >= 0 {
		if int64(n) > rem/size*32768 {
			return nil, c.corrupt("packed column of %d values cannot fit in %d bytes", n, rem)
		}
		if int64(capacity) > rem/size {
			capacity = int(rem / size)
		}
	}
	out := make([]float64, 0, capacity)
	for len(out) < n {
		h, err := c.Int16()
		if err != nil {
			return nil, err
		}
		switch {
		case h > 0:
			if len(out)+int(h) > n {
				return nil, c.corrupt("literal run of %d overflows column of %d", h, n)
			}
			for i := 0; i < int(h); i++ {
				v, err := c.Real(p)
				if err != nil {
					return nil, err
				}
				out = append(out, v)
			}
		case h < 0:
			run := -int(h)
			if len(out)+run > n {
				return nil, c.corrupt("repeat run of %d overflows column of %d", run, n)
			}
			v, err := c.Real(p)
			if err != nil {
				return nil, err
			}
			for i := 0; i < run; i++ {
				out = append(out, v)
			}
		default:
			return nil, c.corrupt("zero-length packed run")
		}
	}
	return out, nil
}
