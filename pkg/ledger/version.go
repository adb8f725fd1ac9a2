package ledger

const Version = "v0.1.0"
