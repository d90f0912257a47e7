package nakama

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"sync"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode    int64
	data      []byte
	presences []runtime.Presence
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	messages     []sentMessage
	labelUpdates []string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.messages = append(md.messages, sentMessage{opCode: opCode, data: append([]byte(nil), data...), presences: presences})
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates = append(md.labelUpdates, label)
	return nil
}

func (md *mockDispatcher) opCodes() []int64 {
	out := make([]int64, len(md.messages))
	for i, m := range md.messages {
		out[i] = m.opCode
	}
	return out
}

func (md *mockDispatcher) last(opCode int64) (sentMessage, bool) {
	for i := len(md.messages) - 1; i >= 0; i-- {
		if md.messages[i].opCode == opCode {
			return md.messages[i], true
		}
	}
	return sentMessage{}, false
}

// fakePresence implements the parts of runtime.Presence the handler reads.
type fakePresence struct {
	runtime.Presence
	userID   string
	username string
}

func (p fakePresence) GetUserId() string    { return p.userID }
func (p fakePresence) GetUsername() string  { return p.username }
func (p fakePresence) GetSessionId() string { return "session-" + p.userID }

type fakeMatchData struct {
	runtime.MatchData
	userID string
	opCode int64
	data   []byte
}

func (d fakeMatchData) GetUserId() string { return d.userID }
func (d fakeMatchData) GetOpCode() int64  { return d.opCode }
func (d fakeMatchData) GetData() []byte   { return d.data }

type storedObject struct {
	value   string
	version int
}

// fakeNakama is an in-memory stand-in for the storage, leaderboard, user
// and match APIs of runtime.NakamaModule.
type fakeNakama struct {
	mu sync.Mutex

	objects     map[string]storedObject
	records     map[string]*api.LeaderboardRecord
	users       map[string]*api.User
	matches     []*api.Match
	created     []string
	leaderboard []string
	profiles    map[string]string

	writeErr    error
	beforeWrite func()
}

func newFakeNakama() *fakeNakama {
	return &fakeNakama{
		objects:  make(map[string]storedObject),
		records:  make(map[string]*api.LeaderboardRecord),
		users:    make(map[string]*api.User),
		profiles: make(map[string]string),
	}
}

func objectKey(collection, key string) string {
	return collection + "/" + key
}

func (f *fakeNakama) StorageRead(ctx context.Context, reads []*runtime.StorageRead) ([]*api.StorageObject, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*api.StorageObject
	for _, r := range reads {
		obj, ok := f.objects[objectKey(r.Collection, r.Key)]
		if !ok {
			continue
		}
		out = append(out, &api.StorageObject{
			Collection: r.Collection,
			Key:        r.Key,
			Value:      obj.value,
			Version:    strconv.Itoa(obj.version),
		})
	}
	return out, nil
}

func (f *fakeNakama) StorageWrite(ctx context.Context, writes []*runtime.StorageWrite) ([]*api.StorageObjectAck, error) {
	if f.beforeWrite != nil {
		hook := f.beforeWrite
		f.beforeWrite = nil
		hook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	for _, w := range writes {
		existing, ok := f.objects[objectKey(w.Collection, w.Key)]
		switch {
		case w.Version == "*" && ok:
			return nil, runtime.ErrStorageRejectedVersion
		case w.Version != "" && w.Version != "*" && (!ok || strconv.Itoa(existing.version) != w.Version):
			return nil, runtime.ErrStorageRejectedVersion
		}
	}
	acks := make([]*api.StorageObjectAck, 0, len(writes))
	for _, w := range writes {
		k := objectKey(w.Collection, w.Key)
		obj := f.objects[k]
		obj.value = w.Value
		obj.version++
		f.objects[k] = obj
		acks = append(acks, &api.StorageObjectAck{Collection: w.Collection, Key: w.Key, Version: strconv.Itoa(obj.version)})
	}
	return acks, nil
}

func (f *fakeNakama) LeaderboardRecordWrite(ctx context.Context, id, ownerID, username string, score, subscore int64, metadata map[string]interface{}, overrideOperator *int) (*api.LeaderboardRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	meta := "{}"
	if metadata != nil {
		b, err := json.Marshal(metadata)
		if err != nil {
			return nil, err
		}
		meta = string(b)
	}
	rec, ok := f.records[ownerID]
	if !ok {
		rec = &api.LeaderboardRecord{LeaderboardId: id, OwnerId: ownerID}
		f.records[ownerID] = rec
	}
	if score >= rec.Score {
		rec.Score = score
		rec.Subscore = subscore
	}
	rec.Username = wrapperspb.String(username)
	rec.Metadata = meta
	return rec, nil
}

func (f *fakeNakama) LeaderboardRecordsList(ctx context.Context, id string, ownerIDs []string, limit int, cursor string, expiry int64) ([]*api.LeaderboardRecord, []*api.LeaderboardRecord, string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*api.LeaderboardRecord, 0, len(f.records))
	for _, rec := range f.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].OwnerId < out[j].OwnerId
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil, "", "", nil
}

func (f *fakeNakama) LeaderboardCreate(ctx context.Context, id string, authoritative bool, sortOrder, operator, resetSchedule string, metadata map[string]interface{}, enableRanks bool) error {
	f.leaderboard = []string{id, sortOrder, operator}
	return nil
}

func (f *fakeNakama) UsersGetId(ctx context.Context, userIDs []string, facebookIDs []string) ([]*api.User, error) {
	var out []*api.User
	for _, id := range userIDs {
		if id == brokenUserID {
			return nil, errors.New("users lookup failed")
		}
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeNakama) AccountUpdateId(ctx context.Context, userID, username string, metadata map[string]interface{}, displayName, timezone, location, langTag, avatarUrl string) error {
	f.profiles[userID] = displayName
	return nil
}

func (f *fakeNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	return f.matches, nil
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	id := "match-" + strconv.Itoa(len(f.created)+1)
	f.created = append(f.created, module)
	return id, nil
}

const (
	playerUserID = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	otherUserID  = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	brokenUserID = "6ba7b811-9dad-11d1-80b4-00c04fd430c8"
)
