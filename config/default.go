package config

// DefaultValues is the default configuration
const DefaultValues = `
[Log]
Level = "debug"
Outputs = ["stdout"]

[Database]
Database = "postgres"
User = "test_user"
Password = "test_password"
Name = "test_db"
Host = "chi-claim-db"
Port = "5432"
MaxConns = 20

[ClaimServer]
Port = "8080"
AdminAPIKey = ""
ReadTimeoutSec = 15
WriteTimeoutSec = 60

[Metrics]
Enabled = false
Port = "9090"

[Etherman]
URL = "http://localhost:8545"
PrivateKeyPath = "./test/test.keystore"
PrivateKeyPassword = "testonly"
`
