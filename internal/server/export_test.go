package server

import "time"

// Limiter exposes the per-IP token bucket for clock-driven tests.
type Limiter struct{ l *ipLimiter }

func NewLimiter(perMinute, burst int, now func() time.Time) Limiter {
	return Limiter{l: newIPLimiter(perMinute, burst, now)}
}

func (l Limiter) Allow(ip string) bool {
	ok, _ := l.l.allow(ip)
	return ok
}

func (l Limiter) Clients() int {
	l.l.mu.Lock()
	defer l.l.mu.Unlock()
	return len(l.l.clients)
}

var StatusFor = statusFor
