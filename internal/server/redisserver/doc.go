// Package redisserver serves the user operations over the Redis RESP
// protocol, so redis-cli and ordinary Redis client libraries can drive the
// rollback API.
//
// Commands:
//
//	PING [message]
//	QUIT
//	USER.LIST                 array of [email, name] pairs, sorted by email
//	USER.CREATE email name    +OK, no-op when the email exists
//	USER.UPDATE email name    +OK, keeps the previous version for rollback
//	USER.ROLLBACK email       +OK, no-op when nothing was captured
//	INFO                      bulk string of key:value lines
//
// Errors are returned as "-ERR <code> <message>" using the domain error
// codes also reported by the HTTP API.
package redisserver
