package steps

import (
	"context"
	"errors"
	"testing"
	"time"

	"overdub/internal/logging"
	"overdub/internal/services"
	"overdub/internal/services/translator"
	"overdub/internal/testsupport"
)

func TestIterationCreatorUsesDeterministicID(t *testing.T) {
	var gotRequest translator.IterationRequest
	client := &fakeTranslator{
		createIteration: func(_ context.Context, req translator.IterationRequest) (translator.Iteration, error) {
			gotRequest = req
			return translator.Iteration{ID: "srv-it-7"}, nil
		},
	}
	creator := NewIterationCreator(testsupport.NewConfig(t), client, nil)

	job := urlJob()
	job.TranslationID = "tr-key"
	job.IterationNumber = 2
	if err := creator.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := creator.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotRequest.ExternalID != "it-key-2" {
		t.Fatalf("external id = %q, want it-key-2", gotRequest.ExternalID)
	}
	if gotRequest.TranslationID != "tr-key" || gotRequest.Number != 2 {
		t.Fatalf("request not forwarded: %+v", gotRequest)
	}
	if job.IterationID != "srv-it-7" {
		t.Fatalf("iteration id = %q, want srv-it-7", job.IterationID)
	}
}

func TestIterationCreatorRequiresTranslation(t *testing.T) {
	creator := NewIterationCreator(testsupport.NewConfig(t), &fakeTranslator{}, nil)
	err := creator.Prepare(context.Background(), urlJob())
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("error = %v, want validation", err)
	}
}

func TestIterationCreatorDefaultsIterationNumber(t *testing.T) {
	creator := NewIterationCreator(testsupport.NewConfig(t), &fakeTranslator{}, nil)
	job := urlJob()
	job.TranslationID = "tr-key"
	job.IterationNumber = 0
	if err := creator.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.IterationNumber != 1 {
		t.Fatalf("iteration number = %d, want 1", job.IterationNumber)
	}
}

func fastProcessingWaiter(client translator.Client) *ProcessingWaiter {
	return &ProcessingWaiter{
		client:       client,
		pollInterval: time.Millisecond,
		timeout:      50 * time.Millisecond,
		logger:       logging.NewNop(),
	}
}

func TestProcessingWaiterRecordsOutputs(t *testing.T) {
	polls := 0
	client := &fakeTranslator{
		iterationStatus: func(_ context.Context, translationID, iterationID string) (translator.IterationState, error) {
			polls++
			if polls < 2 {
				return translator.IterationState{Status: "processing"}, nil
			}
			return translator.IterationState{
				Status:    "succeeded",
				Terminal:  true,
				Succeeded: true,
				Outputs: translator.IterationOutputs{
					VideoURL:          "https://cdn.example/video.mp4",
					SourceSubtitleURL: "https://cdn.example/source.srt",
					TargetSubtitleURL: "https://cdn.example/target.srt",
				},
			}, nil
		},
	}
	job := urlJob()
	job.TranslationID = "tr-key"
	job.IterationID = "it-key-1"

	if err := fastProcessingWaiter(client).Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.OutputVideoURL != "https://cdn.example/video.mp4" {
		t.Fatalf("video url = %q", job.OutputVideoURL)
	}
	if job.SourceSubtitleURL == "" || job.TargetSubtitleURL == "" {
		t.Fatalf("subtitle urls not recorded: %+v", job)
	}
}

func TestProcessingWaiterRejectsSuccessWithoutVideo(t *testing.T) {
	client := &fakeTranslator{
		iterationStatus: func(context.Context, string, string) (translator.IterationState, error) {
			return translator.IterationState{Status: "succeeded", Terminal: true, Succeeded: true}, nil
		},
	}
	job := urlJob()
	job.TranslationID = "tr-key"
	job.IterationID = "it-key-1"

	err := fastProcessingWaiter(client).Execute(context.Background(), job)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("error = %v, want external", err)
	}
}

func TestProcessingWaiterSurfacesIterationFailure(t *testing.T) {
	client := &fakeTranslator{
		iterationStatus: func(context.Context, string, string) (translator.IterationState, error) {
			return translator.IterationState{Status: "failed", Terminal: true, Message: "render error"}, nil
		},
	}
	job := urlJob()
	job.TranslationID = "tr-key"
	job.IterationID = "it-key-1"

	err := fastProcessingWaiter(client).Execute(context.Background(), job)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("error = %v, want external", err)
	}
}
