package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-chatter/internal/registration"
	"course-chatter/internal/storage"
	"course-chatter/internal/validation"
)

type fakeSink struct {
	mu      sync.Mutex
	records []registration.Record
	err     error
}

func (f *fakeSink) Save(_ context.Context, rec registration.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, rec)
	return f.err
}

func validRegistration() RegisterRequest {
	return RegisterRequest{Name: " Ann Lee ", Email: "ann@example.com", Phone: "+1 555 0100", UserID: "u1"}
}

func TestRegister_SavesAndRecordsContext(t *testing.T) {
	sink := &fakeSink{}
	rec := &memRecorder{}
	svc, store := newService(nil, sink, rec)

	res, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.True(t, res.SheetsSaved)
	assert.True(t, strings.HasPrefix(res.ID, "REG_"), res.ID)
	assert.Contains(t, res.Message, "Thank you for registering, Ann Lee!")

	require.Len(t, sink.records, 1)
	assert.Equal(t, "Ann Lee", sink.records[0].Name)
	assert.Equal(t, "u1", sink.records[0].UserID)
	assert.Equal(t, svc.Course().Name, sink.records[0].Course)

	got := store.Get("u1")
	require.Len(t, got, 2)
	assert.Equal(t, "Registration: Ann Lee, ann@example.com, +1 555 0100", got[0].Text)

	events := rec.all()
	require.Len(t, events, 1)
	assert.Equal(t, storage.KindRegister, events[0].Kind)
	require.NotNil(t, events[0].SheetsSaved)
	assert.True(t, *events[0].SheetsSaved)
}

func TestRegister_MalformedEmailNeverReachesSink(t *testing.T) {
	sink := &fakeSink{}
	svc, store := newService(nil, sink, nil)

	req := validRegistration()
	req.Email = "not-an-email"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.True(t, validation.IsValidation(err))
	assert.Contains(t, err.Error(), "email")
	assert.Empty(t, sink.records)
	assert.Empty(t, store.Users())
}

func TestRegister_BlankFieldsRejected(t *testing.T) {
	svc, _ := newService(nil, &fakeSink{}, nil)

	req := validRegistration()
	req.Phone = "  "
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "phone must not be empty")

	req = validRegistration()
	req.Name = ""
	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name must not be empty")
}

func TestRegister_SinkFailureStillSucceeds(t *testing.T) {
	svc, _ := newService(nil, &fakeSink{err: errors.New("sheets down")}, nil)
	res, err := svc.Register(context.Background(), validRegistration())
	require.NoError(t, err)
	assert.False(t, res.SheetsSaved)
	assert.Contains(t, res.Message, "issue with our system")
}

func TestRegister_NoSinkConfigured(t *testing.T) {
	svc, store := newService(nil, nil, nil)
	assert.False(t, svc.SinkConfigured())

	req := validRegistration()
	req.UserID = ""
	res, err := svc.Register(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.SheetsSaved)
	assert.Empty(t, store.Users())
}
