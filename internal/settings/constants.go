package settings

// DB config keys and defaults for settings.
const (
	// InitialFreeCreditsKey controls the credit grant for new FREE accounts.
	InitialFreeCreditsKey = "INITIAL_FREE_CREDITS"
	// SubscriptionMonthlyCreditsKey controls the monthly PRO credit allotment.
	SubscriptionMonthlyCreditsKey = "SUBSCRIPTION_MONTHLY_CREDITS"
	// FreeDailyUsageLimitKey controls generations per day on the FREE plan.
	FreeDailyUsageLimitKey = "FREE_DAILY_USAGE_LIMIT"
	// UsageLimitRedisEnabledKey toggles Redis-backed daily usage counting.
	UsageLimitRedisEnabledKey = "USAGE_LIMIT_REDIS_ENABLED"
	// UsageLimitRedisAddrKey defines the Redis address for usage counting.
	UsageLimitRedisAddrKey = "USAGE_LIMIT_REDIS_ADDR"
	// UsageLimitRedisPasswordKey defines the Redis password for usage counting.
	UsageLimitRedisPasswordKey = "USAGE_LIMIT_REDIS_PASSWORD"
	// UsageLimitRedisDBKey defines the Redis DB index for usage counting.
	UsageLimitRedisDBKey = "USAGE_LIMIT_REDIS_DB"
	// UsageLimitRedisPrefixKey defines the Redis key prefix for usage counting.
	UsageLimitRedisPrefixKey = "USAGE_LIMIT_REDIS_PREFIX"
	// DefaultInitialFreeCredits is the fallback new-account credit grant.
	DefaultInitialFreeCredits = 3
	// DefaultSubscriptionMonthlyCredits is the fallback monthly PRO allotment.
	DefaultSubscriptionMonthlyCredits = 50
	// DefaultFreeDailyUsageLimit is the fallback FREE-plan daily generation cap.
	DefaultFreeDailyUsageLimit = 5
	// DefaultUsageLimitRedisPrefix is the fallback Redis key prefix.
	DefaultUsageLimitRedisPrefix = "fb:usage"
)
