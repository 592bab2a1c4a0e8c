// Package rayid assigns a ray id to every request.
package rayid
