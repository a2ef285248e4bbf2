package melspec

// Patch is an NMels x Frames window of a spectrogram starting at Offset.
type Patch struct {
	Offset int
	// Data is row-major: Data[mel*Frames+frame].
	Data   []float32
	NMels  int
	Frames int
}

// Patches cuts non-overlapping windows of the given width. Windows whose
// loudest value is at or below silenceDB are skipped; at most limit patches
// are returned (limit <= 0 means no limit). A trailing partial window is
// dropped, and silent spectrograms yield no patches.
func (s *Spectrogram) Patches(width, limit int, silenceDB float64) []Patch {
	if s == nil || s.Silent || width <= 0 || len(s.Data) == 0 {
		return nil
	}
	nMels := len(s.Data)
	var out []Patch
	for offset := 0; offset+width <= s.Frames; offset += width {
		if limit > 0 && len(out) >= limit {
			break
		}
		loudest := s.Data[0][offset]
		data := make([]float32, nMels*width)
		for m, row := range s.Data {
			for f := 0; f < width; f++ {
				v := row[offset+f]
				if v > loudest {
					loudest = v
				}
				data[m*width+f] = float32(v)
			}
		}
		if loudest <= silenceDB {
			continue
		}
		out = append(out, Patch{Offset: offset, Data: data, NMels: nMels, Frames: width})
	}
	return out
}
