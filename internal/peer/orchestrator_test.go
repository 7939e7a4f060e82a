package peer

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

type fakeLink struct {
	remoteID string
	events   LinkEvents

	offerCalls  int
	answerCalls int
	accepted    []string
	candidates  []string
	closed      bool

	offerErr     error
	answerErr    error
	acceptErr    error
	candidateErr error
}

func (l *fakeLink) Offer() (json.RawMessage, error) {
	l.offerCalls++
	if l.offerErr != nil {
		return nil, l.offerErr
	}
	return json.RawMessage(fmt.Sprintf(`{"offer":"%s"}`, l.remoteID)), nil
}

func (l *fakeLink) Answer(offer json.RawMessage) (json.RawMessage, error) {
	l.answerCalls++
	if l.answerErr != nil {
		return nil, l.answerErr
	}
	return json.RawMessage(fmt.Sprintf(`{"answer":"%s"}`, l.remoteID)), nil
}

func (l *fakeLink) AcceptAnswer(answer json.RawMessage) error {
	if l.acceptErr != nil {
		return l.acceptErr
	}
	l.accepted = append(l.accepted, string(answer))
	return nil
}

func (l *fakeLink) AddCandidate(candidate json.RawMessage) error {
	if l.candidateErr != nil {
		return l.candidateErr
	}
	l.candidates = append(l.candidates, string(candidate))
	return nil
}

func (l *fakeLink) Close() error {
	l.closed = true
	return nil
}

type fakeFactory struct {
	links map[string]*fakeLink
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{links: make(map[string]*fakeLink)}
}

func (f *fakeFactory) NewLink(remoteID string, events LinkEvents) (Link, error) {
	link := &fakeLink{remoteID: remoteID, events: events}
	f.links[remoteID] = link
	return link, nil
}

type sentSignal struct {
	kind     string
	targetID string
	payload  string
}

type fakeSignaler struct {
	sent []sentSignal
}

func (s *fakeSignaler) SendOffer(targetID string, sdp json.RawMessage) {
	s.sent = append(s.sent, sentSignal{"offer", targetID, string(sdp)})
}

func (s *fakeSignaler) SendAnswer(targetID string, sdp json.RawMessage) {
	s.sent = append(s.sent, sentSignal{"answer", targetID, string(sdp)})
}

func (s *fakeSignaler) SendCandidate(targetID string, candidate json.RawMessage) {
	s.sent = append(s.sent, sentSignal{"ice_candidate", targetID, string(candidate)})
}

func candidate(n int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"candidate":"c%d"}`, n))
}

func TestInitiateSendsOffer(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	if err := orch.Initiate("remote-1"); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	link := links.links["remote-1"]
	if link == nil || link.offerCalls != 1 {
		t.Fatal("expected exactly one offer produced")
	}
	if len(signals.sent) != 1 || signals.sent[0].kind != "offer" || signals.sent[0].targetID != "remote-1" {
		t.Fatalf("expected offer relayed to remote-1, got %+v", signals.sent)
	}

	session, ok := orch.Session("remote-1")
	if !ok {
		t.Fatal("expected session to exist")
	}
	if session.State() != StateLocalOfferSent {
		t.Errorf("expected state %s, got %s", StateLocalOfferSent, session.State())
	}
	if session.Role() != RoleInitiator {
		t.Errorf("expected initiator role, got %s", session.Role())
	}
}

func TestRespondToOffer(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	if err := orch.HandleOffer("remote-1", json.RawMessage(`{"offer":"x"}`)); err != nil {
		t.Fatalf("handle offer: %v", err)
	}

	if len(signals.sent) != 1 || signals.sent[0].kind != "answer" {
		t.Fatalf("expected an answer relayed back, got %+v", signals.sent)
	}

	session, _ := orch.Session("remote-1")
	if session.State() != StateLocalAnswerSent {
		t.Errorf("expected state %s, got %s", StateLocalAnswerSent, session.State())
	}
	if session.Role() != RoleResponder {
		t.Errorf("expected responder role, got %s", session.Role())
	}
}

// Candidates relayed before the remote description must not be lost: they
// are applied in arrival order immediately after the description, and later
// candidates are applied directly.
func TestCandidatesBufferedUntilRemoteDescription(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	for i := 1; i <= 3; i++ {
		if err := orch.HandleCandidate("remote-1", candidate(i)); err != nil {
			t.Fatalf("handle candidate %d: %v", i, err)
		}
	}

	link := links.links["remote-1"]
	if len(link.candidates) != 0 {
		t.Fatalf("candidates must not be applied before the remote description, got %v", link.candidates)
	}

	if err := orch.HandleOffer("remote-1", json.RawMessage(`{"offer":"x"}`)); err != nil {
		t.Fatalf("handle offer: %v", err)
	}

	want := []string{string(candidate(1)), string(candidate(2)), string(candidate(3))}
	if len(link.candidates) != 3 {
		t.Fatalf("expected 3 buffered candidates applied, got %v", link.candidates)
	}
	for i, c := range want {
		if link.candidates[i] != c {
			t.Errorf("candidate %d applied out of order: got %s, want %s", i, link.candidates[i], c)
		}
	}

	// A candidate arriving after the description is applied immediately.
	orch.HandleCandidate("remote-1", candidate(4))
	if len(link.candidates) != 4 || link.candidates[3] != string(candidate(4)) {
		t.Errorf("expected candidate 4 applied directly, got %v", link.candidates)
	}
}

func TestInitiatorAppliesAnswerAndDrainsCandidates(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	orch.Initiate("remote-1")
	orch.HandleCandidate("remote-1", candidate(1))
	orch.HandleCandidate("remote-1", candidate(2))

	link := links.links["remote-1"]
	if len(link.candidates) != 0 {
		t.Fatal("candidates must wait for the answer")
	}

	if err := orch.HandleAnswer("remote-1", json.RawMessage(`{"answer":"y"}`)); err != nil {
		t.Fatalf("handle answer: %v", err)
	}

	session, _ := orch.Session("remote-1")
	if session.State() != StateRemoteDescriptionApplied {
		t.Errorf("expected state %s, got %s", StateRemoteDescriptionApplied, session.State())
	}
	if len(link.accepted) != 1 {
		t.Errorf("expected answer applied once, got %v", link.accepted)
	}
	if len(link.candidates) != 2 {
		t.Errorf("expected buffered candidates drained, got %v", link.candidates)
	}
}

// An answer with no outstanding local offer is a protocol violation.
func TestAnswerWithoutOfferFailsSession(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	if err := orch.HandleAnswer("remote-1", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected an error for an answer without a session")
	}
	if _, ok := orch.Session("remote-1"); ok {
		t.Fatal("a stray answer must not create a session")
	}

	// Same violation against a responder session that never sent an offer.
	orch.HandleOffer("remote-2", json.RawMessage(`{"offer":"x"}`))
	if err := orch.HandleAnswer("remote-2", json.RawMessage(`{}`)); err == nil {
		t.Fatal("expected an error for an answer in local-answer-sent state")
	}
	session, _ := orch.Session("remote-2")
	if session.State() != StateFailed {
		t.Errorf("expected state %s, got %s", StateFailed, session.State())
	}
	if !links.links["remote-2"].closed {
		t.Error("failed session must close its link")
	}
}

// Messages for a failed session are dropped, not reprocessed.
func TestFailedSessionDropsFurtherMessages(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	orch.HandleOffer("remote-1", json.RawMessage(`{"offer":"x"}`))
	orch.HandleAnswer("remote-1", json.RawMessage(`{}`)) // violation, fails the session

	link := links.links["remote-1"]
	applied := len(link.candidates)
	orch.HandleCandidate("remote-1", candidate(9))
	if len(link.candidates) != applied {
		t.Error("candidates must not reach a failed session's link")
	}
	if err := orch.HandleAnswer("remote-1", json.RawMessage(`{}`)); err != nil {
		t.Errorf("messages for a failed session are dropped silently, got %v", err)
	}
}

func TestCandidateFailureIsNonFatal(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	orch.HandleOffer("remote-1", json.RawMessage(`{"offer":"x"}`))
	link := links.links["remote-1"]
	link.candidateErr = errors.New("bogus candidate")

	orch.HandleCandidate("remote-1", candidate(1))

	session, _ := orch.Session("remote-1")
	if session.State() != StateLocalAnswerSent {
		t.Errorf("a rejected candidate must not fail the session, state is %s", session.State())
	}
}

func TestOfferProductionFailureFailsSession(t *testing.T) {
	links := linkFactoryFunc(func(remoteID string, events LinkEvents) (Link, error) {
		return &fakeLink{remoteID: remoteID, events: events, offerErr: errors.New("no transport")}, nil
	})
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	if err := orch.Initiate("remote-1"); err == nil {
		t.Fatal("expected offer production failure to surface")
	}
	session, _ := orch.Session("remote-1")
	if session.State() != StateFailed {
		t.Errorf("expected state %s, got %s", StateFailed, session.State())
	}
}

type linkFactoryFunc func(remoteID string, events LinkEvents) (Link, error)

func (f linkFactoryFunc) NewLink(remoteID string, events LinkEvents) (Link, error) {
	return f(remoteID, events)
}

func TestChannelEstablishedSurfacesChannel(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	var gotRemote string
	orch.OnChannel = func(remoteID string, ch Channel) {
		gotRemote = remoteID
	}

	orch.Initiate("remote-1")
	links.links["remote-1"].events.OnChannel(nil)

	if gotRemote != "remote-1" {
		t.Errorf("expected channel surfaced for remote-1, got %q", gotRemote)
	}
	session, _ := orch.Session("remote-1")
	if session.State() != StateEstablished {
		t.Errorf("expected state %s, got %s", StateEstablished, session.State())
	}
}

func TestLinkCloseTearsDownSession(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	var closedRemote string
	orch.OnClosed = func(remoteID string) {
		closedRemote = remoteID
	}

	orch.Initiate("remote-1")
	links.links["remote-1"].events.OnClose()

	if _, ok := orch.Session("remote-1"); ok {
		t.Error("session must be removed when the channel closes")
	}
	if closedRemote != "remote-1" {
		t.Errorf("expected OnClosed for remote-1, got %q", closedRemote)
	}
	if !links.links["remote-1"].closed {
		t.Error("link must be closed with the session")
	}
}

func TestCloseTearsDownAllSessions(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	closed := make(map[string]bool)
	orch.OnClosed = func(remoteID string) {
		closed[remoteID] = true
	}

	orch.Initiate("remote-1")
	orch.HandleOffer("remote-2", json.RawMessage(`{"offer":"x"}`))

	orch.Close()

	if !closed["remote-1"] || !closed["remote-2"] {
		t.Errorf("expected every session torn down, got %v", closed)
	}
	if _, ok := orch.Session("remote-1"); ok {
		t.Error("session table must be empty after Close")
	}

	if !links.links["remote-1"].closed || !links.links["remote-2"].closed {
		t.Error("links must be closed with their sessions")
	}
}

func TestLocalCandidatesRelayedThroughSignaler(t *testing.T) {
	links := newFakeFactory()
	signals := &fakeSignaler{}
	orch := NewOrchestrator(links, signals)

	orch.Initiate("remote-1")
	links.links["remote-1"].events.OnCandidate(json.RawMessage(`{"candidate":"local"}`))

	last := signals.sent[len(signals.sent)-1]
	if last.kind != "ice_candidate" || last.targetID != "remote-1" {
		t.Errorf("expected local candidate relayed to remote-1, got %+v", last)
	}
}
