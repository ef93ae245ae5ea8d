package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ResourceKey returns the cache key for a resource's directory record
func (r *CacheKeyStruct) ResourceKey(resourceID string) string {
	return fmt.Sprintf("resource:%s", resourceID)
}

// AssistantEventsChannel returns the Redis PubSub channel for an assistant
// session's transcript events
func (r *CacheKeyStruct) AssistantEventsChannel(sessionID string) string {
	return fmt.Sprintf("assistant:%s:events", sessionID)
}

var CacheKey = NewCacheKeyStruct()
