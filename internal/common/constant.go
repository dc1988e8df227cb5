package common

// AccessTokenHeaderName is the HTTP header used to carry the bearer token
// on authenticated requests to the payment service.
const AccessTokenHeaderName = "X-Access-Token"
