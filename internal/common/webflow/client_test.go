package webflow

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientOptions{APIKey: "wf-token", BaseURL: server.URL, Timeout: 5 * time.Second})
}

func TestFindItem_ScansAllPages(t *testing.T) {
	total := 150
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/col1/items", r.URL.Path)
		assert.Equal(t, "Bearer wf-token", r.Header.Get("Authorization"))

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		var items []Item
		for i := offset; i < total && i < offset+pageSize; i++ {
			items = append(items, Item{
				ID:        fmt.Sprintf("item%d", i),
				FieldData: FieldData{"member-id": fmt.Sprintf("M%d", i)},
			})
		}
		_ = json.NewEncoder(w).Encode(listItemsResponse{
			Items:      items,
			Pagination: Pagination{Limit: pageSize, Offset: offset, Total: total},
		})
	})

	item, err := client.FindItem(context.Background(), "col1", "member-id", "M140")
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.Equal(t, "item140", item.ID)

	item, err = client.FindItem(context.Background(), "col1", "member-id", "M999")
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestCreateItem_Live(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/collections/col2/items/live", r.URL.Path)

		var req itemRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "king-county", req.FieldData["slug"])
		assert.False(t, req.IsDraft)

		_ = json.NewEncoder(w).Encode(Item{ID: "newItem", FieldData: req.FieldData})
	})

	item, err := client.CreateItem(context.Background(), "col2", FieldData{"slug": "king-county"}, true)

	require.NoError(t, err)
	assert.Equal(t, "newItem", item.ID)
}

func TestUpdateItem(t *testing.T) {
	tests := []struct {
		name     string
		live     bool
		wantPath string
	}{
		{"live", true, "/collections/col1/items/item9/live"},
		{"staged", false, "/collections/col1/items/item9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPatch, r.Method)
				assert.Equal(t, tt.wantPath, r.URL.Path)
				_ = json.NewEncoder(w).Encode(Item{ID: "item9"})
			})

			item, err := client.UpdateItem(context.Background(), "col1", "item9", FieldData{"certification-status": "Certified"}, tt.live)
			require.NoError(t, err)
			assert.Equal(t, "item9", item.ID)
		})
	}
}

func TestUpdateItem_Error(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code":"too_many_requests"}`))
	})

	_, err := client.UpdateItem(context.Background(), "col1", "item9", FieldData{}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestGetCollection_Options(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/collections/col2", r.URL.Path)
		_, _ = w.Write([]byte(`{
			"id": "col2",
			"fields": [
				{"slug": "status", "type": "Option", "validations": {"options": [
					{"id": "opt-upcoming", "name": "Upcoming"},
					{"id": "opt-completed", "name": "Completed"}
				]}},
				{"slug": "board-meeting", "type": "Option", "validations": {"options": [
					{"id": "opt-march", "name": "March Board Meeting"}
				]}},
				{"slug": "name", "type": "PlainText"}
			]
		}`))
	})

	collection, err := client.GetCollection(context.Background(), "col2")
	require.NoError(t, err)

	assert.Nil(t, collection.Field("Status"))
	status := collection.Field("status")
	require.NotNil(t, status)
	assert.Equal(t, "opt-completed", status.OptionIDFold("completed"))
	assert.Equal(t, "", status.OptionID("completed"))

	meeting := collection.Field("board-meeting")
	assert.Equal(t, "opt-march", meeting.OptionID("March Board Meeting"))
	assert.Equal(t, "", meeting.OptionID("march board meeting"))
	assert.Equal(t, "", collection.Field("name").OptionID("x"))
}
