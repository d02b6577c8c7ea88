package authapi

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// inscriptionRequest keeps the front-end's French field names on the wire.
type inscriptionRequest struct {
	FirstName string `json:"prenom"`
	LastName  string `json:"nom"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

type tokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

type validateResponse struct {
	OK     bool   `json:"ok"`
	UserID string `json:"userId"`
	Login  string `json:"login"`
	Exp    int64  `json:"exp"`
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type protectedUser struct {
	ID    string `json:"id"`
	Login string `json:"login"`
}

type protectedResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	User    protectedUser `json:"user"`
}
