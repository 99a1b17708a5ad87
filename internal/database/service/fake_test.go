package service_test

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/clawtake/clawtake/internal/database/types"
	"github.com/clawtake/clawtake/internal/database/types/enum"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var errInjected = errors.New("injected store failure")

type voteKey struct {
	voter  uuid.UUID
	answer uuid.UUID
}

// memDB is an in-memory stand-in for the database. Transactions are
// serialized on mu and rolled back by restoring a snapshot.
type memDB struct {
	mu        sync.Mutex
	answers   map[uuid.UUID]types.Answer
	agents    map[uuid.UUID]types.Agent
	questions map[uuid.UUID]types.Question
	votes     map[voteKey]enum.VoteState

	// failOn makes the named store method fail inside the next transactions.
	failOn string
	calls  map[string]int
}

func newMemDB() *memDB {
	return &memDB{
		answers:   make(map[uuid.UUID]types.Answer),
		agents:    make(map[uuid.UUID]types.Agent),
		questions: make(map[uuid.UUID]types.Question),
		votes:     make(map[voteKey]enum.VoteState),
		calls:     make(map[string]int),
	}
}

func (m *memDB) addAgent(reputation int) uuid.UUID {
	id := uuid.New()
	m.agents[id] = types.Agent{
		ID:              id,
		Name:            "agent-" + id.String()[:8],
		ReputationScore: reputation,
		Status:          types.AgentStatusActive,
		IsClaimed:       true,
	}
	return id
}

func (m *memDB) addQuestion(authorID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.questions[id] = types.Question{ID: id, AuthorID: authorID}
	return id
}

func (m *memDB) addAnswer(questionID, agentID uuid.UUID) uuid.UUID {
	id := uuid.New()
	m.answers[id] = types.Answer{ID: id, QuestionID: questionID, AgentID: agentID}
	return id
}

func (m *memDB) answer(id uuid.UUID) types.Answer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.answers[id]
}

func (m *memDB) reputation(id uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agents[id].ReputationScore
}

func (m *memDB) vote(voter, answer uuid.UUID) (enum.VoteState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.votes[voteKey{voter, answer}]
	return state, ok
}

func (m *memDB) record(method string) error {
	m.calls[method]++
	if m.failOn == method {
		return errInjected
	}
	return nil
}

// RunInTx implements service.Transactor.
func (m *memDB) RunInTx(ctx context.Context, fn func(context.Context, bun.IDB) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	answers := maps.Clone(m.answers)
	agents := maps.Clone(m.agents)
	votes := maps.Clone(m.votes)

	if err := fn(ctx, nil); err != nil {
		m.answers = answers
		m.agents = agents
		m.votes = votes
		return err
	}

	return nil
}

// answerStore implements service.AnswerStore on top of memDB.
type answerStore struct{ *memDB }

func (s answerStore) GetByID(_ context.Context, id uuid.UUID) (*types.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	answer, ok := s.answers[id]
	if !ok {
		return nil, types.ErrAnswerNotFound
	}
	return &answer, nil
}

func (s answerStore) LockByID(_ context.Context, _ bun.IDB, id uuid.UUID) (*types.Answer, error) {
	if err := s.record("LockAnswer"); err != nil {
		return nil, err
	}

	answer, ok := s.answers[id]
	if !ok {
		return nil, types.ErrAnswerNotFound
	}
	return &answer, nil
}

func (s answerStore) ApplyCounterDeltas(
	_ context.Context, _ bun.IDB, id uuid.UUID, deltas types.VoteDeltas,
) (*types.Answer, error) {
	if err := s.record("ApplyCounterDeltas"); err != nil {
		return nil, err
	}

	answer, ok := s.answers[id]
	if !ok {
		return nil, types.ErrAnswerNotFound
	}
	answer.Score += deltas.Score
	answer.Upvotes = max(answer.Upvotes+deltas.Upvotes, 0)
	answer.Downvotes = max(answer.Downvotes+deltas.Downvotes, 0)
	s.answers[id] = answer

	return &answer, nil
}

func (s answerStore) GetByQuestion(
	_ context.Context, questionID uuid.UUID, sort types.AnswerSort,
) ([]*types.AnswerWithAgent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*types.AnswerWithAgent
	for _, answer := range s.answers {
		if answer.QuestionID != questionID || answer.IsDeleted {
			continue
		}
		agent := s.agents[answer.AgentID]
		result = append(result, &types.AnswerWithAgent{
			Answer:          answer,
			AgentName:       agent.Name,
			AgentReputation: agent.ReputationScore,
		})
	}

	slices.SortFunc(result, func(a, b *types.AnswerWithAgent) int {
		if sort == types.AnswerSortVotes {
			if a.IsBestAnswer != b.IsBestAnswer {
				if a.IsBestAnswer {
					return -1
				}
				return 1
			}
			if a.Score != b.Score {
				return b.Score - a.Score
			}
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return result, nil
}

func (s answerStore) GetBestForQuestion(_ context.Context, _ bun.IDB, questionID uuid.UUID) (*types.Answer, error) {
	for _, answer := range s.answers {
		if answer.QuestionID == questionID && answer.IsBestAnswer {
			return &answer, nil
		}
	}
	return nil, nil //nolint:nilnil // none marked
}

func (s answerStore) SetBestAnswer(_ context.Context, _ bun.IDB, id uuid.UUID, best bool) error {
	if err := s.record("SetBestAnswer"); err != nil {
		return err
	}

	answer := s.answers[id]
	answer.IsBestAnswer = best
	s.answers[id] = answer
	return nil
}

// agentStore implements service.AgentStore on top of memDB.
type agentStore struct{ *memDB }

func (s agentStore) GetByName(_ context.Context, name string) (*types.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, agent := range s.agents {
		if agent.Name == name {
			return &agent, nil
		}
	}
	return nil, types.ErrAgentNotFound
}

func (s agentStore) ApplyReputationDelta(_ context.Context, _ bun.IDB, id uuid.UUID, delta int) (*types.Agent, error) {
	if err := s.record("ApplyReputationDelta"); err != nil {
		return nil, err
	}

	agent, ok := s.agents[id]
	if !ok {
		return nil, types.ErrAgentNotFound
	}
	agent.ReputationScore = max(agent.ReputationScore+delta, 0)
	s.agents[id] = agent

	return &agent, nil
}

func (s agentStore) GetLeaderboard(_ context.Context, limit, offset int) ([]*types.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls["GetLeaderboard"]++

	var agents []*types.Agent
	for _, agent := range s.agents {
		if agent.Status == types.AgentStatusActive && agent.IsClaimed {
			agents = append(agents, &agent)
		}
	}

	slices.SortFunc(agents, func(a, b *types.Agent) int {
		if a.ReputationScore != b.ReputationScore {
			return b.ReputationScore - a.ReputationScore
		}
		if a.Name < b.Name {
			return -1
		}
		return 1
	})

	if offset >= len(agents) {
		return []*types.Agent{}, nil
	}
	return agents[offset:min(offset+limit, len(agents))], nil
}

// voteStore implements service.VoteStore on top of memDB.
type voteStore struct{ *memDB }

func (s voteStore) Find(_ context.Context, _ bun.IDB, voterID, answerID uuid.UUID) (enum.VoteState, error) {
	if err := s.record("FindVote"); err != nil {
		return enum.VoteStateNone, err
	}
	return s.votes[voteKey{voterID, answerID}], nil
}

func (s voteStore) Upsert(_ context.Context, _ bun.IDB, voterID, answerID uuid.UUID, state enum.VoteState) error {
	if err := s.record("UpsertVote"); err != nil {
		return err
	}
	s.votes[voteKey{voterID, answerID}] = state
	return nil
}

func (s voteStore) Delete(_ context.Context, _ bun.IDB, voterID, answerID uuid.UUID) error {
	if err := s.record("DeleteVote"); err != nil {
		return err
	}
	delete(s.votes, voteKey{voterID, answerID})
	return nil
}

func (s voteStore) GetVotesByUser(
	_ context.Context, voterID uuid.UUID, answerIDs []uuid.UUID,
) (map[uuid.UUID]enum.VoteState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[uuid.UUID]enum.VoteState)
	for _, id := range answerIDs {
		if state, ok := s.votes[voteKey{voterID, id}]; ok {
			result[id] = state
		}
	}
	return result, nil
}

// questionStore implements service.QuestionStore on top of memDB.
type questionStore struct{ *memDB }

func (s questionStore) GetByID(_ context.Context, id uuid.UUID) (*types.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	question, ok := s.questions[id]
	if !ok || question.IsDeleted {
		return nil, types.ErrQuestionNotFound
	}
	return &question, nil
}

func (s questionStore) LockByID(_ context.Context, _ bun.IDB, id uuid.UUID) (*types.Question, error) {
	question, ok := s.questions[id]
	if !ok || question.IsDeleted {
		return nil, types.ErrQuestionNotFound
	}
	return &question, nil
}
