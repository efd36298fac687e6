package mongo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

func TestBuildFilter_Empty(t *testing.T) {
	assert.Empty(t, buildFilter(port.SubmissionQuery{}))
}

func TestBuildFilter_AllFields(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	filter := buildFilter(port.SubmissionQuery{
		SubmitterUID: "emp-1",
		Statuses:     []workflow.State{workflow.StateDiajukan, workflow.StateDivalidasi},
		Unit:         "Head Office",
		Category:     "Medical",
		From:         from,
		To:           to,
	})

	want := bson.D{
		{Key: "user.uid", Value: "emp-1"},
		{Key: "status", Value: bson.M{"$in": bson.A{"Diajukan", "Divalidasi"}}},
		{Key: "user.unit", Value: "Head Office"},
		{Key: "category", Value: "Medical"},
		{Key: "submittedAt", Value: bson.M{"$gte": from, "$lt": to}},
	}
	assert.Equal(t, want, filter)
}

func TestBuildFilter_OpenEndedRange(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	filter := buildFilter(port.SubmissionQuery{From: from})
	assert.Equal(t, bson.D{{Key: "submittedAt", Value: bson.M{"$gte": from}}}, filter)
}

func TestFindOptions(t *testing.T) {
	opts := findOptions(port.SubmissionQuery{SortBy: port.SortTotalBiaya, SortDesc: true, Limit: 20, Offset: 40})

	assert.Equal(t, bson.D{{Key: "totalBiaya", Value: -1}, {Key: "_id", Value: 1}}, opts.Sort)
	assert.Equal(t, int64(20), *opts.Limit)
	assert.Equal(t, int64(40), *opts.Skip)

	fallback := findOptions(port.SubmissionQuery{SortBy: "bogus"})
	assert.Equal(t, bson.D{{Key: "submittedAt", Value: 1}, {Key: "_id", Value: 1}}, fallback.Sort)
	assert.Nil(t, fallback.Limit)
}

func TestTxManager_PassesThrough(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	var seen interface{}
	err := TxManager{}.WithTransaction(ctx, func(inner context.Context) error {
		seen = inner.Value(key{})
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "v", seen)
}
