package stt_test

import (
	"github.com/satriahrh/topicstream/adapters/stt"
	"github.com/satriahrh/topicstream/domain/repositories"
)

var (
	_ repositories.SpeechToText            = &stt.GoogleSpeechToText{}
	_ repositories.SpeechToText            = &stt.DeepgramSpeechToText{}
	_ repositories.SpeechToText            = &stt.MockSpeechToText{}
	_ repositories.PrerecordedSpeechToText = &stt.DeepgramPrerecorded{}
)
