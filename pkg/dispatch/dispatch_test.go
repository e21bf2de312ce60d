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

package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/fieldprobe/pkg/logger"
	"github.com/carverauto/fieldprobe/pkg/models"
	"github.com/carverauto/fieldprobe/pkg/probe"
)

type memSub struct {
	bus     *memBus
	subject string
}

func (s *memSub) Subject() string { return s.subject }

func (s *memSub) Unsubscribe() error {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()

	delete(s.bus.handlers, s.subject)

	return nil
}

type memBus struct {
	mu       sync.Mutex
	handlers map[string]Handler
}

func newMemBus() *memBus { return &memBus{handlers: make(map[string]Handler)} }

func (b *memBus) Subscribe(subject string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[subject] = h

	return &memSub{bus: b, subject: subject}, nil
}

func (b *memBus) Publish(ctx context.Context, subject string, data []byte) error {
	b.mu.Lock()
	h := b.handlers[subject]
	b.mu.Unlock()

	if h != nil {
		h(ctx, &Message{Subject: subject, Data: data})
	}

	return nil
}

func (b *memBus) subjects() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.handlers)
}

type statusRecord struct {
	requester string
	reply     models.StatusReply
}

type recordingEmitter struct {
	mu       sync.Mutex
	statuses []statusRecord
	data     []*models.DataMessage
}

func (e *recordingEmitter) EmitData(_ context.Context, msg *models.DataMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.data = append(e.data, msg)

	return nil
}

func (e *recordingEmitter) EmitStatus(_ context.Context, requester string, reply models.StatusReply) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.statuses = append(e.statuses, statusRecord{requester: requester, reply: reply})

	return nil
}

func (e *recordingEmitter) statusCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.statuses)
}

type stubHooks struct {
	id   models.ProbeID
	runs chan models.Params
}

func (h *stubHooks) ID() models.ProbeID { return h.id }

func (*stubHooks) Parameters() []models.Parameter {
	return []models.Parameter{{Name: models.ParamPeriod, Default: 3600.0, Merge: models.MergeMin}, {Name: "limit"}}
}

func (*stubHooks) RequiredCapabilities() []string                { return nil }
func (*stubHooks) OnEnable(context.Context, models.Params) error { return nil }
func (*stubHooks) OnDisable(context.Context) error               { return nil }
func (*stubHooks) OnStop(context.Context) error                  { return nil }

func (h *stubHooks) OnRun(_ context.Context, params models.Params, _ probe.Emitter) error {
	h.runs <- params
	return nil
}

type fixture struct {
	registry *probe.Registry
	emitter  *recordingEmitter
	hooks    map[models.ProbeID]*stubHooks
	bus      *memBus
	loop     *Loop
	disp     *Dispatcher
}

func newFixture(t *testing.T, ids ...models.ProbeID) *fixture {
	t.Helper()

	log := logger.NewTestLogger()
	f := &fixture{
		registry: probe.NewRegistry(),
		emitter:  &recordingEmitter{},
		hooks:    make(map[models.ProbeID]*stubHooks),
		bus:      newMemBus(),
		loop:     NewLoop(log, 0),
	}

	for _, id := range ids {
		h := &stubHooks{id: id, runs: make(chan models.Params, 8)}
		f.hooks[id] = h
		require.NoError(t, f.registry.Add(probe.New(h, f.emitter, log)))
	}

	f.disp = NewDispatcher(f.registry, f.bus, f.loop, log)

	ctx, cancel := context.WithCancel(context.Background())
	f.loop.Start(ctx)

	t.Cleanup(func() {
		f.loop.Stop()
		cancel()
	})

	return f
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "fieldprobe.poll", Address("anything", KindGlobalPoll))
	assert.Equal(t, Address("", KindGlobalPoll), Address("process", KindGlobalPoll))
	assert.Equal(t, "fieldprobe.probe.process.poll", Address("process", KindPoll))
	assert.Equal(t, "fieldprobe.probe.snmp_2einterfaces.get", Address("snmp.interfaces", KindGet))
	assert.Equal(t, "fieldprobe.probe.process.data", DataAddress("process"))
	assert.Equal(t, "fieldprobe.reply.app_2ex.status", ReplyAddress("app.x"))
	assert.Equal(t, "a_20b_2ac", Token("a b*c"))
	assert.Equal(t, "_", Token(""))
	assert.Empty(t, Address("x", Kind(42)))
}

func TestTokenKeepsIdentifiersDistinct(t *testing.T) {
	ids := []string{"", "_", "snmp.interfaces", "snmp_interfaces", "snmp_2einterfaces", "app.x", "app_x", "a b", "a\u00e9"}
	seen := make(map[string]string, len(ids))

	for _, id := range ids {
		tok := Token(id)
		if prev, ok := seen[tok]; ok {
			t.Fatalf("%q and %q share token %q", prev, id, tok)
		}

		seen[tok] = id

		assert.NotContains(t, tok, ".")
	}

	assert.NotEqual(t, Address("snmp.interfaces", KindPoll), Address("snmp_interfaces", KindPoll))
	assert.NotEqual(t, DataAddress("snmp.interfaces"), DataAddress("snmp_interfaces"))
	assert.NotEqual(t, ReplyAddress("app.x"), ReplyAddress("app_x"))
}

func TestActivateDeactivateIsSymmetric(t *testing.T) {
	f := newFixture(t, "a", "b", "c")

	require.NoError(t, f.disp.Activate(context.Background()))
	require.True(t, f.disp.Active())
	assert.Equal(t, 7, f.bus.subjects())
	assert.Len(t, f.disp.Subjects(), 7)

	// second activation does not double-subscribe
	require.NoError(t, f.disp.Activate(context.Background()))
	assert.Len(t, f.disp.Subjects(), 7)

	require.NoError(t, f.disp.Deactivate())
	assert.False(t, f.disp.Active())
	assert.Zero(t, f.bus.subjects())
	assert.Empty(t, f.disp.Subjects())

	require.NoError(t, f.disp.Deactivate())
}

func TestActivateFailureReleasesSubscriptions(t *testing.T) {
	ctrl := gomock.NewController(t)

	bus := NewMockBus(ctrl)
	global := NewMockSubscription(ctrl)
	poll := NewMockSubscription(ctrl)

	registry := probe.NewRegistry()
	require.NoError(t, registry.Add(probe.New(&stubHooks{id: "a"}, nil, logger.NewTestLogger())))

	gomock.InOrder(
		bus.EXPECT().Subscribe("fieldprobe.poll", gomock.Any()).Return(global, nil),
		bus.EXPECT().Subscribe("fieldprobe.probe.a.poll", gomock.Any()).Return(poll, nil),
		bus.EXPECT().Subscribe("fieldprobe.probe.a.get", gomock.Any()).Return(nil, errors.New("permission violation")),
	)

	global.EXPECT().Unsubscribe().Return(nil)
	poll.EXPECT().Unsubscribe().Return(nil)

	d := NewDispatcher(registry, bus, NewLoop(logger.NewTestLogger(), 0), logger.NewTestLogger())

	require.Error(t, d.Activate(context.Background()))
	assert.False(t, d.Active())
	assert.Empty(t, d.Subjects())
}

func TestGlobalPollRepliesForEveryProbe(t *testing.T) {
	f := newFixture(t, "a", "b", "c")
	require.NoError(t, f.disp.Activate(context.Background()))

	require.NoError(t, f.bus.Publish(context.Background(), "fieldprobe.poll", []byte(`{"requester":"app.x"}`)))

	require.Eventually(t, func() bool { return f.emitter.statusCount() == 3 }, time.Second, 5*time.Millisecond)

	f.emitter.mu.Lock()
	defer f.emitter.mu.Unlock()

	for _, s := range f.emitter.statuses {
		assert.Equal(t, "app.x", s.requester)
		assert.Empty(t, s.reply.Nonce)
		assert.False(t, s.reply.Enabled)

		b, err := json.Marshal(s.reply)
		require.NoError(t, err)
		assert.NotContains(t, string(b), "nonce")
	}
}

func TestProbePollEchoesNonce(t *testing.T) {
	f := newFixture(t, "a", "b")

	err := f.disp.Route(context.Background(), models.ControlMessage{
		Action: models.ActionProbePoll, Probe: "b", Requester: "app.y", Nonce: "42",
	})
	require.NoError(t, err)

	require.Len(t, f.emitter.statuses, 1)
	assert.Equal(t, models.ProbeID("b"), f.emitter.statuses[0].reply.Probe)
	assert.Equal(t, "42", f.emitter.statuses[0].reply.Nonce)
}

func TestRouteDropsMissingRequester(t *testing.T) {
	f := newFixture(t, "a", "b", "c")

	for _, action := range []models.Action{models.ActionGlobalPoll, models.ActionProbePoll, models.ActionGetData} {
		err := f.disp.Route(context.Background(), models.ControlMessage{Action: action, Probe: "a", Params: models.Params{"limit": 1}})
		require.ErrorIs(t, err, ErrMalformedRequest)
	}

	assert.Zero(t, f.emitter.statusCount())

	for _, p := range f.registry.All() {
		assert.Equal(t, probe.StateDisabled, p.State())
	}
}

func TestRouteUnknownTarget(t *testing.T) {
	f := newFixture(t, "a")

	err := f.disp.Route(context.Background(), models.ControlMessage{Action: models.ActionProbePoll, Probe: "zzz", Requester: "app"})
	require.ErrorIs(t, err, ErrUnknownTarget)

	err = f.disp.Route(context.Background(), models.ControlMessage{Action: models.ActionGetData, Probe: "zzz", Requester: "app"})
	require.ErrorIs(t, err, ErrUnknownTarget)

	err = f.disp.Route(context.Background(), models.ControlMessage{Action: "reboot", Requester: "app"})
	require.ErrorIs(t, err, errUnknownAction)

	assert.Zero(t, f.emitter.statusCount())
}

func TestGetDataRunsTransiently(t *testing.T) {
	f := newFixture(t, "a")
	require.NoError(t, f.disp.Activate(context.Background()))

	require.NoError(t, f.bus.Publish(context.Background(), Address("a", KindGet),
		[]byte(`{"requester":"app.z","params":{"limit":5}}`)))

	select {
	case params := <-f.hooks["a"].runs:
		assert.InDelta(t, 5, params["limit"], 0)
	case <-time.After(time.Second):
		t.Fatal("get-data did not run the probe")
	}

	p, _ := f.registry.Get("a")
	require.Eventually(t, func() bool { return p.State() == probe.StateDisabled }, time.Second, 5*time.Millisecond)
	assert.Empty(t, p.Requests())
}

func TestUndecodablePayloadIsDropped(t *testing.T) {
	f := newFixture(t, "a")
	require.NoError(t, f.disp.Activate(context.Background()))

	require.NoError(t, f.bus.Publish(context.Background(), "fieldprobe.poll", []byte(`{not json`)))

	_, err := Decode(KindGlobalPoll, "", &Message{Data: []byte("{")})
	require.ErrorIs(t, err, ErrMalformedRequest)

	// the loop is serial, so once this task runs the dropped message would have been handled
	require.NoError(t, f.loop.Do(context.Background(), func(context.Context) {}))
	assert.Zero(t, f.emitter.statusCount())
}

func TestDecodeTakesTargetFromSubject(t *testing.T) {
	m, err := Decode(KindGet, "a", &Message{
		Subject: Address("a", KindGet),
		Data:    []byte(`{"requester":"app.z","nonce":"n1","params":{"limit":5}}`),
	})
	require.NoError(t, err)

	assert.Equal(t, models.ControlMessage{
		Action:    models.ActionGetData,
		Probe:     "a",
		Params:    models.Params{"limit": float64(5)},
		Requester: "app.z",
		Nonce:     "n1",
	}, m)

	m, err = Decode(KindPoll, "b", &Message{})
	require.NoError(t, err)
	assert.Equal(t, models.ControlMessage{Action: KindPoll.Action(), Probe: "b"}, m)
}

func TestRegistrar(t *testing.T) {
	f := newFixture(t, "a")

	req := models.DataRequest{Probe: "a", Requester: "config", Params: models.Params{models.ParamPeriod: 60.0}}
	require.NoError(t, f.disp.RegisterDataRequest(context.Background(), req))
	require.NoError(t, f.disp.RegisterDataRequest(context.Background(), req))

	<-f.hooks["a"].runs

	p, _ := f.registry.Get("a")
	assert.Len(t, p.Requests(), 1)

	require.ErrorIs(t, f.disp.RegisterDataRequest(context.Background(), models.DataRequest{Probe: "nope"}), ErrUnknownTarget)

	require.NoError(t, f.disp.UnregisterDataRequests(context.Background(), "a"))
	assert.Equal(t, probe.StateDisabled, p.State())
	assert.Empty(t, p.Requests())

	require.ErrorIs(t, f.disp.UnregisterDataRequests(context.Background(), "nope"), ErrUnknownTarget)
}

func TestLoopSerializesTasks(t *testing.T) {
	loop := NewLoop(logger.NewTestLogger(), 4)

	require.ErrorIs(t, loop.Submit(func(context.Context) {}), ErrLoopStopped)

	loop.Start(context.Background())

	var (
		mu      sync.Mutex
		order   []int
		running int
		maxSeen int
	)

	for i := 0; i < 20; i++ {
		require.NoError(t, loop.Submit(func(context.Context) {
			mu.Lock()
			running++
			if running > maxSeen {
				maxSeen = running
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			order = append(order, i)
			mu.Unlock()
		}))
	}

	require.NoError(t, loop.Do(context.Background(), func(context.Context) { panic("boom") }))
	require.NoError(t, loop.Do(context.Background(), func(context.Context) {}))

	mu.Lock()
	assert.Equal(t, 1, maxSeen)
	assert.Len(t, order, 20)
	assert.Equal(t, 0, order[0])
	assert.Equal(t, 19, order[19])
	mu.Unlock()

	loop.Stop()
	require.ErrorIs(t, loop.Submit(func(context.Context) {}), ErrLoopStopped)
}
