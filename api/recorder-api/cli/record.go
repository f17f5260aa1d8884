// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	internal_audio_encoder "github.com/rapidaai/speaking-coach/api/recorder-api/internal/audio/encoder"
	internal_device "github.com/rapidaai/speaking-coach/api/recorder-api/internal/device"
	internal_evaluation "github.com/rapidaai/speaking-coach/api/recorder-api/internal/evaluation"
	internal_permission "github.com/rapidaai/speaking-coach/api/recorder-api/internal/permission"
	internal_recorder "github.com/rapidaai/speaking-coach/api/recorder-api/internal/recorder"
	internal_session "github.com/rapidaai/speaking-coach/api/recorder-api/internal/session"
	internal_type "github.com/rapidaai/speaking-coach/api/recorder-api/internal/type"
)

var (
	recordFile       string
	recordTopic      string
	recordTopics     []string
	recordLanguage   string
	recordOut        string
	recordNoEvaluate bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record an answer from a wav file and evaluate it",
	Long: `record plays a LINEAR16 wav file through the recorder as if it were a live
microphone. The session stops when the file ends, at the time limit or on Ctrl-C.`,
	RunE: runRecord,
}

func init() {
	recordCmd.Flags().StringVarP(&recordFile, "file", "f", "", "wav file used as the microphone")
	recordCmd.Flags().StringVarP(&recordTopic, "topic", "t", internal_evaluation.FreestyleFallbackTopic, "topic the learner answers")
	recordCmd.Flags().StringSliceVar(&recordTopics, "topics", nil, "candidate topics for a freestyle answer")
	recordCmd.Flags().StringVarP(&recordLanguage, "language", "l", "", "answer language, en or tr (default from RELAY__LANGUAGE)")
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "", "write the recorded artifact to this path")
	recordCmd.Flags().BoolVar(&recordNoEvaluate, "no-evaluate", false, "skip the evaluation call")
	_ = recordCmd.MarkFlagRequired("file")
}

// outcome is how a record run ended.
type outcome struct {
	result *internal_type.Evaluation
	err    error
}

func runRecord(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadApplication(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	language := internal_type.Language(strings.ToLower(recordLanguage))
	if language == "" {
		language = internal_type.Language(cfg.Relay.Language)
	}
	if !language.Valid() {
		return fmt.Errorf("unsupported language %q", recordLanguage)
	}

	relay, err := newRelayFactory(ctx, cfg, logger, language)
	if err != nil {
		return err
	}
	var evaluator internal_type.Evaluator
	if !recordNoEvaluate {
		if evaluator, err = newEvaluator(ctx, cfg, logger); err != nil {
			return err
		}
	}

	done := make(chan outcome, 1)
	finish := func(o outcome) {
		select {
		case done <- o:
		default:
		}
	}
	stderr := cmd.ErrOrStderr()

	gate := internal_permission.NewGate(logger, internal_device.NewFileMicrophone(logger, recordFile))
	rec := internal_recorder.NewRecorder(logger, gate, internal_recorder.Options{
		Session: internal_session.Config{
			MaxSeconds:       cfg.Recorder.MaxDurationSeconds,
			MinSeconds:       cfg.Recorder.MinDurationSeconds,
			SilenceThreshold: cfg.Recorder.SilenceThreshold,
			GatingEnabled:    cfg.Recorder.GatingEnabled,
		},
		VADInterval: cfg.Recorder.VADInterval(),
		Sinks:       internal_audio_encoder.NewFactory(logger, cfg.Recorder.Timeslice()),
		Relay:       relay,
		Evaluator:   evaluator,
		Callbacks: internal_recorder.Callbacks{
			OnStateChange: func(state internal_session.State) {
				logger.Debugf("recorder state %s", state)
			},
			OnTick: func(remaining, elapsed int) {
				if verbose {
					fmt.Fprintf(stderr, "[%02d:%02d left]\n", remaining/60, remaining%60)
				}
			},
			OnTranscript: func(delta, _ string) {
				fmt.Fprint(stderr, delta)
			},
			OnArtifact: func(artifact internal_recorder.Artifact) {
				fmt.Fprintf(stderr, "\nrecorded %ds of %s (%d bytes)\n", artifact.Elapsed, artifact.MimeType, len(artifact.Data))
				if recordOut != "" {
					if err := os.WriteFile(recordOut, artifact.Data, 0o644); err != nil {
						logger.Errorf("writing artifact to %s: %v", recordOut, err)
					}
				}
				if evaluator == nil {
					finish(outcome{})
				}
			},
			OnDiscard: func(reason error) {
				finish(outcome{err: reason})
			},
			OnError: func(err error) {
				finish(outcome{err: err})
			},
			OnEvaluation: func(result *internal_type.Evaluation) {
				finish(outcome{result: result})
			},
		},
	})
	defer func() {
		teardownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rec.Teardown(teardownCtx); err != nil {
			logger.Warnf("recorder teardown: %v", err)
		}
	}()

	if err := rec.Start(ctx, internal_recorder.Prompt{
		Topic:    recordTopic,
		Topics:   recordTopics,
		Language: language,
	}); err != nil {
		return errors.New(internal_type.UserMessage(err))
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(stderr, "\ninterrupted")
		return nil
	case o := <-done:
		if o.err != nil {
			logger.Debugf("record ended: %v", o.err)
			return errors.New(internal_type.UserMessage(o.err))
		}
		if o.result == nil {
			return nil
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(o.result)
	}
}
