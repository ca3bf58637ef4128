// Package auth provides authentication for the stream and admin surfaces.
//
// Subpackages:
//
//   - auth/jwt      generic JWT service; StreamClaims carry user and session ids
//   - auth/apikey   bcrypt-hashed API keys for publish and admin calls
//   - auth/authctx  typed request-context propagation for claims
//
// The top-level package holds the TokenValidator contract, bearer token
// extraction and the composed Config:
//
//	auth:
//	  enabled: true
//	  allow_query_token: true
//	  jwt:
//	    secret: "my-secret"
//	    issuer: "pushhub"
//	  api_keys:
//	    hashes:
//	      - "$2a$12$..."
package auth
