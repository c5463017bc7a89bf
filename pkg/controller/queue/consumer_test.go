package queue_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	consumer "github.com/m-mizutani/drover/pkg/controller/queue"
	"github.com/m-mizutani/drover/pkg/domain/interfaces"
	"github.com/m-mizutani/drover/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// MockQueue captures subscriptions so tests can inject deliveries
type MockQueue struct {
	handlers map[string]interfaces.QueueHandler
}

func (m *MockQueue) Enqueue(ctx context.Context, subject string, req *model.DispatchRequest) error {
	return nil
}

func (m *MockQueue) Subscribe(ctx context.Context, subject string, handler interfaces.QueueHandler) (func(), error) {
	if m.handlers == nil {
		m.handlers = make(map[string]interfaces.QueueHandler)
	}
	m.handlers[subject] = handler
	return func() {}, nil
}

// MockDispatch records processed dispatch requests
type MockDispatch struct {
	processFunc func(ctx context.Context, req *model.DispatchRequest) error
	processed   []model.DispatchRequest
}

func (m *MockDispatch) ProcessDispatch(ctx context.Context, req *model.DispatchRequest) error {
	if m.processFunc != nil {
		if err := m.processFunc(ctx, req); err != nil {
			return err
		}
	}
	m.processed = append(m.processed, *req)
	return nil
}

func envelopeBytes(t *testing.T, req *model.DispatchRequest) []byte {
	t.Helper()
	env, err := model.WrapDispatchRequest(req)
	gt.NoError(t, err)
	data, err := json.Marshal(env)
	gt.NoError(t, err)
	return data
}

func TestConsumer_HandleMessage(t *testing.T) {
	queue := &MockQueue{}
	dispatch := &MockDispatch{}

	c := consumer.NewConsumer(queue, dispatch, []string{"dispatch.default", "dispatch.gpu"}, time.Minute)

	stop, err := c.Start(context.Background())
	gt.NoError(t, err)
	defer stop()

	gt.Number(t, len(queue.handlers)).Equal(2)

	req := &model.DispatchRequest{Owner: "org1", RepositoryName: "repo1", DeliveryID: "d1"}
	gt.NoError(t, queue.handlers["dispatch.default"](context.Background(), envelopeBytes(t, req)))

	gt.Number(t, len(dispatch.processed)).Equal(1)
	gt.Value(t, dispatch.processed[0]).Equal(*req)
}

func TestConsumer_HandleMessage_MalformedEnvelope(t *testing.T) {
	queue := &MockQueue{}
	dispatch := &MockDispatch{}

	c := consumer.NewConsumer(queue, dispatch, []string{"dispatch.default"}, time.Minute)
	stop, err := c.Start(context.Background())
	gt.NoError(t, err)
	defer stop()

	gt.Error(t, queue.handlers["dispatch.default"](context.Background(), []byte("not json")))
	gt.Number(t, len(dispatch.processed)).Equal(0)
}

func TestConsumer_HandleMessage_InvalidRequest(t *testing.T) {
	queue := &MockQueue{}
	dispatch := &MockDispatch{}

	c := consumer.NewConsumer(queue, dispatch, []string{"dispatch.default"}, time.Minute)
	stop, err := c.Start(context.Background())
	gt.NoError(t, err)
	defer stop()

	req := &model.DispatchRequest{Owner: "org1"} // missing repository
	gt.Error(t, queue.handlers["dispatch.default"](context.Background(), envelopeBytes(t, req)))
	gt.Number(t, len(dispatch.processed)).Equal(0)
}

func TestConsumer_HandleMessage_DispatchFailure(t *testing.T) {
	queue := &MockQueue{}
	dispatch := &MockDispatch{
		processFunc: func(ctx context.Context, req *model.DispatchRequest) error {
			return goerr.New("token exchange failed")
		},
	}

	c := consumer.NewConsumer(queue, dispatch, []string{"dispatch.default"}, time.Minute)
	stop, err := c.Start(context.Background())
	gt.NoError(t, err)
	defer stop()

	req := &model.DispatchRequest{Owner: "org1", RepositoryName: "repo1"}

	// The error must surface so the queue adapter leaves the message
	// unacknowledged and redelivers it.
	gt.Error(t, queue.handlers["dispatch.default"](context.Background(), envelopeBytes(t, req)))
}

func TestConsumer_HandleMessage_Timeout(t *testing.T) {
	queue := &MockQueue{}
	dispatch := &MockDispatch{
		processFunc: func(ctx context.Context, req *model.DispatchRequest) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}

	c := consumer.NewConsumer(queue, dispatch, []string{"dispatch.default"}, 10*time.Millisecond)
	stop, err := c.Start(context.Background())
	gt.NoError(t, err)
	defer stop()

	req := &model.DispatchRequest{Owner: "org1", RepositoryName: "repo1"}
	gt.Error(t, queue.handlers["dispatch.default"](context.Background(), envelopeBytes(t, req)))
}
