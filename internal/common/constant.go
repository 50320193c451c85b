package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token.
const AccessTokenHeaderName = "access_token"

// TimezoneHeaderName is the gRPC metadata key a client may use to declare its
// IANA timezone when the request body does not carry one.
const TimezoneHeaderName = "x-timezone"

// DefaultTimezone is used whenever a caller declares no timezone or one that
// cannot be loaded.
const DefaultTimezone = "UTC"
