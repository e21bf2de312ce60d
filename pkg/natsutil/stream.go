/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package natsutil

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/fieldprobe/pkg/dispatch"
	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
)

// DataSubjects matches every probe data subject.
const DataSubjects = dispatch.SubjectRoot + ".probe.*.data"

// HeaderContentType carries the codec content type on published records.
const HeaderContentType = "Content-Type"

// NewJetStream returns a JetStream context, scoped to domain when set.
func NewJetStream(nc *nats.Conn, domain string) (jetstream.JetStream, error) {
	if domain == "" {
		js, err := jetstream.New(nc)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream context: %w", err)
		}

		return js, nil
	}

	js, err := jetstream.NewWithDomain(nc, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context with domain %s: %w", domain, err)
	}

	return js, nil
}

// RecordPublisher writes data messages into a JetStream stream. It implements scan.Sink.
type RecordPublisher struct {
	js     jetstream.JetStream
	stream string
	codec  Codec
	logger logger.Logger
}

// NewRecordPublisher ensures stream exists and captures DataSubjects, then returns a
// publisher encoding with codec.
func NewRecordPublisher(ctx context.Context, js jetstream.JetStream, stream string, codec Codec, log logger.Logger) (*RecordPublisher, error) {
	if err := ensureStream(ctx, js, stream, DataSubjects, log); err != nil {
		return nil, err
	}

	return &RecordPublisher{js: js, stream: stream, codec: codec, logger: log}, nil
}

// EmitData publishes msg on its probe's data subject. The message id doubles as the
// JetStream dedupe id.
func (p *RecordPublisher) EmitData(ctx context.Context, msg *models.DataMessage) error {
	data, err := p.codec.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode data message: %w", err)
	}

	out := nats.NewMsg(dispatch.DataAddress(msg.Probe))
	out.Data = data
	out.Header.Set(HeaderContentType, p.codec.ContentType())
	out.Header.Set(jetstream.MsgIDHeader, msg.ID.String())

	ack, err := p.js.PublishMsg(ctx, out)
	if err != nil {
		return fmt.Errorf("failed to publish data for %s: %w", msg.Probe, err)
	}

	p.logger.Debug().
		Str("probe", string(msg.Probe)).
		Str("stream", ack.Stream).
		Uint64("seq", ack.Sequence).
		Int("records", len(msg.Records)).
		Msg("Published data message")

	return nil
}

// ensureStream creates stream, or widens an existing stream's subjects to cover subject.
func ensureStream(ctx context.Context, js jetstream.JetStream, name, subject string, log logger.Logger) error {
	stream, err := js.Stream(ctx, name)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", name, err)
		}

		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     name,
			Subjects: []string{subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", name, err)
		}

		log.Info().Str("stream", name).Str("subject", subject).Msg("Created record stream")

		return nil
	}

	cfg := stream.CachedInfo().Config
	subjects := ensureSubjectList(cfg.Subjects, subject)

	if len(subjects) == len(cfg.Subjects) {
		return nil
	}

	cfg.Subjects = subjects
	if _, err := js.UpdateStream(ctx, cfg); err != nil {
		return fmt.Errorf("failed to add subject %s to stream %s: %w", subject, name, err)
	}

	log.Info().Str("stream", name).Strs("subjects", subjects).Msg("Updated record stream subjects")

	return nil
}

// ensureSubjectList appends subject unless one of subjects already covers it.
func ensureSubjectList(subjects []string, subject string) []string {
	if slices.ContainsFunc(subjects, func(pattern string) bool { return matchesSubject(pattern, subject) }) {
		return subjects
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern, which may use * and > wildcards, covers subject.
// A pattern that is itself a wildcard subject matches only when every token covers the
// corresponding token of subject.
func matchesSubject(pattern, subject string) bool {
	pt := strings.Split(pattern, ".")
	st := strings.Split(subject, ".")

	for i, tok := range pt {
		if tok == ">" {
			return len(st) > i
		}

		if i >= len(st) {
			return false
		}

		if tok != "*" && tok != st[i] {
			return false
		}
	}

	return len(pt) == len(st)
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}
