package entity

import (
	"encoding/json"
	"time"
)

// Draft is the single save slot for an unsubmitted form
type Draft struct {
	Key       string          `json:"key" bson:"_id"`
	UID       string          `json:"uid" bson:"uid"`
	DraftType string          `json:"draftType" bson:"draftType"`
	Payload   json.RawMessage `json:"payload" bson:"payload"`
	SavedAt   time.Time       `json:"savedAt" bson:"savedAt"`
}

// DraftKey builds the slot key {uid}_{draftType}
func DraftKey(uid, draftType string) string {
	return uid + "_" + draftType
}
