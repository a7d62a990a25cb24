// meta/meta.go
package meta

// ROUND_LIMIT defines the number of moves after which a game is stopped.
const ROUND_LIMIT = 100

// GO_ROUTINES defines the number of games played in parallel.
const GO_ROUTINES = 1

// GAMES defines the number of games of a batch.
const GAMES = 1

// MAX_PLAYERS defines the most seats a game can have.
const MAX_PLAYERS = 4
