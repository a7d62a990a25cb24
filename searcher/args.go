package searcher

// Defaults of the search, overridden by options

const DefaultExploration = 1.0 // C of UCB1
const DefaultCutoff = 10       // Max playout depth
const DefaultExpansion = 1     // Nodes appended to the tree per simulation
const DefaultCyclePenalty = -50
const DefaultEpsilon = 0.005 // Best move ties

// Values are stored per player, at most this many players
const MaxPlayers = 4

// Scores are points between 0 and 100
const ScoreScale = 100.0
