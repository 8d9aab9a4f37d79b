package remote

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lhs-project/libre-health-sync/internal/llu"
)

// fakeRequester answers by path
type fakeRequester struct {
	replies map[string]string
	err     error
	paths   []string
}

func (f *fakeRequester) Do(_ context.Context, method, path string, _ any) ([]byte, error) {
	if method != http.MethodGet {
		return nil, errors.New("unexpected method " + method)
	}
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	reply, ok := f.replies[path]
	if !ok {
		return nil, llu.NewInvalidResponseError(http.StatusNotFound)
	}
	return []byte(reply), nil
}

func TestFetchConnections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   string
		wantLen int
		check   func(t *testing.T, err error)
	}{
		{
			name: "decodes connections",
			reply: `{"status":0,"data":[{"id":"c1","patientId":"p1","firstName":"Ada","lastName":"L",
				"glucoseMeasurement":{"FactoryTimestamp":"1/1/2026 12:15:00 AM","ValueInMgPerDl":101,"TrendArrow":3},
				"sensor":{"deviceId":"d","sn":"s"}}],"ticket":{"token":"t"}}`,
			wantLen: 1,
		},
		{
			name:    "empty list is not an error here",
			reply:   `{"status":0,"data":[]}`,
			wantLen: 0,
		},
		{
			name:  "null data",
			reply: `{"status":0,"data":null}`,
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorIs(t, err, llu.ErrNoData)
			},
		},
		{
			name:  "absent data",
			reply: `{"status":0}`,
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.ErrorIs(t, err, llu.ErrNoData)
			},
		},
		{
			name:  "malformed payload",
			reply: `{"status":0,"data":{"not":"a list"}}`,
			check: func(t *testing.T, err error) {
				t.Helper()
				var decErr *llu.DecodingError
				assert.ErrorAs(t, err, &decErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			requester := &fakeRequester{replies: map[string]string{"/llu/connections": tt.reply}}
			connections, err := NewClient(requester).FetchConnections(context.Background())

			if tt.check != nil {
				require.Error(t, err)
				tt.check(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, connections, tt.wantLen)
		})
	}
}

func TestFetchConnections_DecodesFields(t *testing.T) {
	t.Parallel()

	requester := &fakeRequester{replies: map[string]string{
		"/llu/connections": `{"status":0,"data":[{"id":"c1","patientId":"p1","firstName":"Ada","lastName":"L",
			"glucoseMeasurement":{"FactoryTimestamp":"1/1/2026 12:15:00 AM","ValueInMgPerDl":101,"TrendArrow":3}}]}`,
	}}

	connections, err := NewClient(requester).FetchConnections(context.Background())
	require.NoError(t, err)
	require.Len(t, connections, 1)

	c := connections[0]
	assert.Equal(t, "Ada L", c.DisplayName())
	assert.Equal(t, "p1", c.HistoryKey())
	latest := c.LatestReading()
	require.NotNil(t, latest)
	value, ok := latest.MgPerDl()
	require.True(t, ok)
	assert.InDelta(t, 101.0, value, 0.001)
	assert.Equal(t, llu.TrendStable, latest.Trend())
}

func TestFetchHistory(t *testing.T) {
	t.Parallel()

	requester := &fakeRequester{replies: map[string]string{
		"/llu/connections/p1/graph": `{"status":0,"data":{
			"connection":{"id":"c1","patientId":"p1","glucoseMeasurement":{"FactoryTimestamp":"1/1/2026 12:15:00 AM","ValueInMgPerDl":120}},
			"activeSensors":[{"sensor":{"sn":"abc"}}],
			"graphData":[
				{"FactoryTimestamp":"1/1/2026 12:00:00 AM","ValueInMgPerDl":100},
				{"FactoryTimestamp":"1/1/2026 12:05:00 AM","ValueInMgPerDl":105}
			]}}`,
	}}

	batch, err := NewClient(requester).FetchHistory(context.Background(), "p1")
	require.NoError(t, err)
	assert.Len(t, batch.GraphData, 2)
	assert.Len(t, batch.ActiveSensors, 1)
	current := batch.CurrentReading()
	require.NotNil(t, current)
	assert.Equal(t, "1/1/2026 12:15:00 AM", current.FactoryTimestamp)
	assert.Equal(t, []string{"/llu/connections/p1/graph"}, requester.paths)
}

func TestFetchHistory_Errors(t *testing.T) {
	t.Parallel()

	_, err := NewClient(&fakeRequester{}).FetchHistory(context.Background(), "")
	assert.ErrorIs(t, err, llu.ErrInvalidURL)

	requester := &fakeRequester{replies: map[string]string{"/llu/connections/p1/graph": `{"status":0,"data":null}`}}
	_, err = NewClient(requester).FetchHistory(context.Background(), "p1")
	assert.ErrorIs(t, err, llu.ErrNoData)

	expired := &fakeRequester{err: llu.NewTokenExpiredError()}
	_, err = NewClient(expired).FetchHistory(context.Background(), "p1")
	assert.True(t, llu.IsTokenExpired(err), "transport errors propagate unchanged")

	_, err = NewClient(&fakeRequester{replies: map[string]string{}}).FetchHistory(context.Background(), "p2")
	assert.ErrorIs(t, err, llu.ErrInvalidResponse)
}

func TestFetchHistory_EscapesConnectionID(t *testing.T) {
	t.Parallel()

	requester := &fakeRequester{replies: map[string]string{}}
	_, _ = NewClient(requester).FetchHistory(context.Background(), "a/b")
	assert.Equal(t, []string{"/llu/connections/a%2Fb/graph"}, requester.paths)
}
