// Package reqctx carries request-scoped values between HTTP middleware and
// services: request metadata (request id, client ip) and the resolved caller.
//
// Context keys are unexported; use the typed helpers:
//
//	ctx = reqctx.WithRequestMeta(ctx, &reqctx.RequestMeta{RequestID: "abc-123"})
//	ctx = reqctx.WithCaller(ctx, &reqctx.Caller{UID: uid, Verified: true})
//
//	rid := reqctx.RequestIDFromContext(ctx)
//	uid := reqctx.CallerUID(ctx)
//
// RequestMeta is set for every HTTP request. Caller is set only when the
// request carried a valid access token or a legacy userUid parameter.
package reqctx
