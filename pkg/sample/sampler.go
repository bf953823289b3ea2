package sample

import "fmt"

// DefaultOversample is the number of reads averaged into one sample.
const DefaultOversample = 64

// Source provides single raw ADC conversions.
type Source interface {
	ReadRaw() (uint16, error)
}

// Sampler oversamples a Source to suppress ADC noise.
type Sampler struct {
	src Source
	n   int
}

// NewSampler creates a sampler averaging n reads per sample.
func NewSampler(src Source, n int) *Sampler {
	if n <= 0 {
		n = DefaultOversample
	}
	return &Sampler{src: src, n: n}
}

// Oversample returns the number of reads per sample.
func (s *Sampler) Oversample() int {
	return s.n
}

// Sample performs n reads and returns their mean, truncated.
// A failed read aborts the sample.
func (s *Sampler) Sample() (uint16, error) {
	var sum uint64
	for i := 0; i < s.n; i++ {
		v, err := s.src.ReadRaw()
		if err != nil {
			return 0, fmt.Errorf("read %d/%d failed: %w", i+1, s.n, err)
		}
		sum += uint64(v)
	}
	return uint16(sum / uint64(s.n)), nil
}
