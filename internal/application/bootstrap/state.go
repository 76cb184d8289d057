package bootstrap

// State is one step of a project activation
type State string

// Activation states in the order they can be visited
const (
	StateStart            State = "Start"
	StateEnsureStore      State = "EnsureStore"
	StateAlreadyExisted   State = "AlreadyExisted"
	StateStoreIsNew       State = "StoreIsNew"
	StateCheckCredentials State = "CheckCredentials"
	StateHasCredentials   State = "HasCredentials"
	StateNoCredentials    State = "NoCredentials"
	StateIngest           State = "Ingest"
	StateLoadFromStore    State = "LoadFromStore"
	StateDone             State = "Done"
)
