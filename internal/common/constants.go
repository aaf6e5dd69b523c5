package common

// AccessTokenHeaderName is the HTTP header used to carry the access token
// on outbound requests.
const AccessTokenHeaderName = "Authorization"

// DeviceIDHeaderName is the HTTP header used to carry the device token when
// the client operates in anonymous device scope.
const DeviceIDHeaderName = "X-Device-Id"
