// Package main starts the design shop backend. It sells design packages
// and takes donations through Stripe Checkout, records every order and
// donation in a database and exposes a bearer token protected admin API.
// Run "design-shop start" to serve, see "design-shop --help" for the other
// commands.
package main
