package cache

import "strings"

const (
	GlobalKeyPrefix = "docquiz"

	ServiceUsage      = "usage"
	ServiceGeneration = "generation"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// PlanKey caches a user's resolved plan name.
func PlanKey(userID string) string {
	return GenerateCacheKey(ServiceUsage, "plan", userID)
}

// QuizLockKey guards concurrent generation into one quiz.
func QuizLockKey(quizID string) string {
	return GenerateCacheKey(ServiceGeneration, "lock", quizID)
}
