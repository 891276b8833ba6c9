// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package motion

import "fmt"

// AnimationSampling is the recorder's frame plan: progress fractions
// in [0,1] at which the animation is sampled, plus optional boundary
// samples taken before the animation starts and after it settles.
type AnimationSampling struct {
	// Fractions are the interior sample positions, ascending.
	Fractions []float64

	// SampleBefore adds a "before" frame captured prior to seeking.
	SampleBefore bool

	// SampleAfter adds an "after" frame captured once the animation
	// has settled at its end state.
	SampleAfter bool
}

// AtFractions samples at explicit progress positions.
func AtFractions(fractions ...float64) (AnimationSampling, error) {
	if len(fractions) == 0 {
		return AnimationSampling{}, fmt.Errorf("motion: sampling needs at least one fraction")
	}
	prev := -1.0
	for _, f := range fractions {
		if f < 0 || f > 1 {
			return AnimationSampling{}, fmt.Errorf("motion: sampling fraction %v outside [0,1]", f)
		}
		if f <= prev {
			return AnimationSampling{}, fmt.Errorf("motion: sampling fractions must be strictly ascending")
		}
		prev = f
	}
	return AnimationSampling{Fractions: append([]float64(nil), fractions...)}, nil
}

// EvenlySampled spreads count samples evenly across the animation.
// atStart and atEnd pin the first/last sample to progress 0 and 1;
// without a pin the samples shift inward so neither boundary is hit:
//
//	EvenlySampled(3, true, true)   => [0, 0.5, 1]
//	EvenlySampled(3, true, false)  => [0, 1/3, 2/3]
//	EvenlySampled(3, false, true)  => [1/3, 2/3, 1]
//	EvenlySampled(3, false, false) => [1/4, 2/4, 3/4]
func EvenlySampled(count int, atStart, atEnd bool) (AnimationSampling, error) {
	if count < 1 {
		return AnimationSampling{}, fmt.Errorf("motion: sample count %d must be positive", count)
	}
	if count == 1 && atStart && atEnd {
		return AnimationSampling{}, fmt.Errorf("motion: one sample cannot pin both boundaries")
	}

	fractions := make([]float64, count)
	for i := 0; i < count; i++ {
		switch {
		case atStart && atEnd:
			fractions[i] = float64(i) / float64(count-1)
		case atStart:
			fractions[i] = float64(i) / float64(count)
		case atEnd:
			fractions[i] = float64(i+1) / float64(count)
		default:
			fractions[i] = float64(i+1) / float64(count+1)
		}
	}
	return AnimationSampling{Fractions: fractions}, nil
}

// FrameCount returns the total number of frames the plan produces,
// boundary samples included.
func (s AnimationSampling) FrameCount() int {
	n := len(s.Fractions)
	if s.SampleBefore {
		n++
	}
	if s.SampleAfter {
		n++
	}
	return n
}
