// Package service holds the account use cases: the registration transaction,
// the access/refresh session protocol, and account reads, deletion and email verification.
//
// Services depend on repo.Repository only. Every store error is classified into the
// domain taxonomy before it leaves this package.
package service
