package diarize

import "github.com/redubtool/redub/pkg/segment"

// voicePool hands out synthesis voices round-robin per gender and pins
// each speaker to the first voice it received. Distinct speakers of the
// same gender therefore get distinct voices until the pool wraps.
type voicePool struct {
	male       []string
	female     []string
	nextMale   int
	nextFemale int
	bySpeaker  map[string]string
}

func newVoicePool(male, female []string) *voicePool {
	return &voicePool{
		male:      male,
		female:    female,
		bySpeaker: make(map[string]string),
	}
}

// assign returns the voice for a speaker, drawing a new one from the
// gender's pool on first sight. An empty pool yields an empty voice ID;
// the synthesis stage treats that as engine default.
func (p *voicePool) assign(speaker string, gender segment.Gender) string {
	if v, ok := p.bySpeaker[speaker]; ok {
		return v
	}

	var voice string
	if gender == segment.GenderFemale {
		if len(p.female) > 0 {
			voice = p.female[p.nextFemale%len(p.female)]
			p.nextFemale++
		}
	} else {
		if len(p.male) > 0 {
			voice = p.male[p.nextMale%len(p.male)]
			p.nextMale++
		}
	}

	p.bySpeaker[speaker] = voice
	return voice
}
