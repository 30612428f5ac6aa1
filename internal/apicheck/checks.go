package apicheck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// seedPassword выглядит как argon2-хэш: API принимает его и как
// пароль регистрации, и как пароль входа в тестовом окружении.
const seedPassword = "$argon2id$v=19$m=65536,t=3,p=4$ZmFrZXNhbHQ$ZmFrZWhhc2g"

// Check описывает одну черноящичную проверку API.
type Check struct {
	Name string
	Run  func(ctx context.Context, c *Client) error
}

// Checks возвращает полный набор smoke-проверок в порядке запуска.
func Checks() []Check {
	return []Check{
		{"login_ok", checkLoginOK},
		{"login_unknown_user", checkLoginUnknownUser},
		{"login_wrong_password", checkLoginWrongPassword},
		{"login_malformed_json", checkLoginMalformedJSON},
		{"create_account_ok", checkCreateAccountOK},
		{"create_account_bad_email", checkCreateAccountBadEmail},
		{"create_account_bad_password", checkCreateAccountBadPassword},
		{"create_account_duplicate_email", checkDuplicateEmail},
		{"create_account_duplicate_username", checkDuplicateUsername},
		{"create_account_malformed_json", checkAccountsMalformedJSON},
		{"get_characters_requires_auth", checkGetCharactersRequiresAuth},
		{"create_character_requires_auth", checkCreateCharacterRequiresAuth},
		{"get_characters_empty", checkGetCharactersEmpty},
		{"create_character_ok_and_get", checkCreateCharacterAndGet},
		{"create_character_restricted_class", checkRestrictedClass},
		{"update_character_ok", checkUpdateCharacter},
		{"update_character_missing_fields", checkUpdateCharacterMissingFields},
		{"update_character_wrong_user", checkUpdateCharacterWrongUser},
		{"delete_character_ok", checkDeleteCharacter},
		{"delete_character_wrong_user", checkDeleteCharacterWrongUser},
	}
}

// Run прогоняет проверки, печатая PASS/FAIL построчно,
// и возвращает число провалов.
func Run(ctx context.Context, c *Client, out io.Writer) int {
	failed := 0
	for _, check := range Checks() {
		if err := check.Run(ctx, c); err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", check.Name, err)
			continue
		}
		fmt.Fprintf(out, "PASS %s\n", check.Name)
	}
	return failed
}

func assertStatus(expected, actual int, label string) error {
	if expected != actual {
		return fmt.Errorf("%s: expected %d, got %d", label, expected, actual)
	}
	return nil
}

type accountSeed struct {
	Email    string
	Username string
	Password string
}

// createLoginSeed регистрирует аккаунт для входа.
func createLoginSeed(ctx context.Context, c *Client, suffix string) (accountSeed, error) {
	short := suffix
	if len(short) > 8 {
		short = short[len(short)-8:]
	}
	seed := accountSeed{
		Email:    fmt.Sprintf("login%s@example.com", short),
		Username: "lg" + short,
		Password: seedPassword,
	}
	status, _, err := c.RequestJSON(ctx, "POST", "/accounts", map[string]string{
		"email":    seed.Email,
		"username": seed.Username,
		"password": seed.Password,
	}, nil)
	if err != nil {
		return accountSeed{}, err
	}
	if err := assertStatus(201, status, "login seed create status"); err != nil {
		return accountSeed{}, err
	}
	return seed, nil
}

// createAccountAndToken регистрирует аккаунт и получает JWT.
func createAccountAndToken(ctx context.Context, c *Client, suffix string) (string, error) {
	seed, err := createLoginSeed(ctx, c, suffix)
	if err != nil {
		return "", err
	}
	status, body, err := c.RequestJSON(ctx, "POST", "/login", map[string]string{
		"username": seed.Username,
		"password": seed.Password,
	}, nil)
	if err != nil {
		return "", err
	}
	if err := assertStatus(200, status, "login status"); err != nil {
		return "", err
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if data.Token == "" {
		return "", fmt.Errorf("login response missing token")
	}
	return data.Token, nil
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func checkLoginOK(ctx context.Context, c *Client) error {
	seed, err := createLoginSeed(ctx, c, "ok"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	status, body, err := c.RequestJSON(ctx, "POST", "/login", map[string]string{
		"username": seed.Username,
		"password": seed.Password,
	}, nil)
	if err != nil {
		return err
	}
	if err := assertStatus(200, status, "login status"); err != nil {
		return err
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return fmt.Errorf("decode login response: %w", err)
	}
	if data.Token == "" {
		return fmt.Errorf("login response missing token")
	}
	if strings.Count(data.Token, ".") != 2 {
		return fmt.Errorf("login response token is not a JWT")
	}
	return nil
}

func checkLoginUnknownUser(ctx context.Context, c *Client) error {
	status, _, err := c.RequestJSON(ctx, "POST", "/login", map[string]string{
		"username": "nouser" + c.UniqueSuffix(),
		"password": seedPassword,
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(401, status, "unknown user login status")
}

func checkLoginWrongPassword(ctx context.Context, c *Client) error {
	seed, err := createLoginSeed(ctx, c, "wp"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "POST", "/login", map[string]string{
		"username": seed.Username,
		"password": seedPassword + "wrong",
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(401, status, "wrong password login status")
}

func checkLoginMalformedJSON(ctx context.Context, c *Client) error {
	status, _, err := c.RequestRaw(ctx, "POST", "/login", []byte(`{"username":`), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return err
	}
	if status < 400 || status > 499 {
		return fmt.Errorf("malformed login status: expected 4xx, got %d", status)
	}
	return nil
}

func checkCreateAccountOK(ctx context.Context, c *Client) error {
	suffix := c.UniqueSuffix()
	short := suffix[len(suffix)-8:]
	status, _, err := c.RequestJSON(ctx, "POST", "/accounts", map[string]string{
		"email":    fmt.Sprintf("new%s@example.com", short),
		"username": "nw" + short,
		"password": seedPassword,
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(201, status, "create account status")
}

func checkCreateAccountBadEmail(ctx context.Context, c *Client) error {
	short := c.UniqueSuffix()
	status, _, err := c.RequestJSON(ctx, "POST", "/accounts", map[string]string{
		"email":    "not-an-email",
		"username": "be" + short[len(short)-8:],
		"password": seedPassword,
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(400, status, "invalid email status")
}

func checkCreateAccountBadPassword(ctx context.Context, c *Client) error {
	short := c.UniqueSuffix()
	status, _, err := c.RequestJSON(ctx, "POST", "/accounts", map[string]string{
		"email":    fmt.Sprintf("bp%s@example.com", short[len(short)-8:]),
		"username": "bp" + short[len(short)-8:],
		"password": "weak",
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(400, status, "invalid password status")
}

func checkDuplicateEmail(ctx context.Context, c *Client) error {
	seed, err := createLoginSeed(ctx, c, "de"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	short := c.UniqueSuffix()
	status, _, err := c.RequestJSON(ctx, "POST", "/accounts", map[string]string{
		"email":    seed.Email,
		"username": "dd" + short[len(short)-8:],
		"password": seedPassword,
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(409, status, "duplicate email status")
}

func checkDuplicateUsername(ctx context.Context, c *Client) error {
	seed, err := createLoginSeed(ctx, c, "du"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	short := c.UniqueSuffix()
	status, _, err := c.RequestJSON(ctx, "POST", "/accounts", map[string]string{
		"email":    fmt.Sprintf("dup%s@example.com", short[len(short)-8:]),
		"username": seed.Username,
		"password": seedPassword,
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(409, status, "duplicate username status")
}

func checkAccountsMalformedJSON(ctx context.Context, c *Client) error {
	status, _, err := c.RequestRaw(ctx, "POST", "/accounts", []byte(`{not-json`), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return err
	}
	if status < 400 || status > 499 {
		return fmt.Errorf("malformed accounts status: expected 4xx, got %d", status)
	}
	return nil
}

func checkGetCharactersRequiresAuth(ctx context.Context, c *Client) error {
	status, _, err := c.RequestJSON(ctx, "GET", "/characters", nil, nil)
	if err != nil {
		return err
	}
	return assertStatus(401, status, "get characters auth status")
}

func checkCreateCharacterRequiresAuth(ctx context.Context, c *Client) error {
	status, _, err := c.RequestJSON(ctx, "POST", "/characters", map[string]string{
		"name":        "hero" + c.UniqueSuffix(),
		"description": "No auth",
		"sex":         "Male",
		"class":       "Mercenary",
	}, nil)
	if err != nil {
		return err
	}
	return assertStatus(401, status, "create character auth status")
}

func listCharacters(ctx context.Context, c *Client, token string) ([]map[string]any, error) {
	status, body, err := c.RequestJSON(ctx, "GET", "/characters", nil, bearer(token))
	if err != nil {
		return nil, err
	}
	if err := assertStatus(200, status, "get characters status"); err != nil {
		return nil, err
	}
	var data struct {
		Characters []map[string]any `json:"characters"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode characters response: %w", err)
	}
	return data.Characters, nil
}

func createCharacter(ctx context.Context, c *Client, token string) (int, error) {
	status, body, err := c.RequestJSON(ctx, "POST", "/characters", map[string]string{
		"name":        "hero" + c.UniqueSuffix(),
		"description": "First hero",
		"sex":         "Male",
		"class":       "Mercenary",
	}, bearer(token))
	if err != nil {
		return 0, err
	}
	if err := assertStatus(200, status, "create character status"); err != nil {
		return 0, err
	}
	var data struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return 0, fmt.Errorf("decode create character response: %w", err)
	}
	if data.ID <= 0 {
		return 0, fmt.Errorf("create character response missing id")
	}
	return data.ID, nil
}

func checkGetCharactersEmpty(ctx context.Context, c *Client) error {
	token, err := createAccountAndToken(ctx, c, "em"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	characters, err := listCharacters(ctx, c, token)
	if err != nil {
		return err
	}
	if len(characters) != 0 {
		return fmt.Errorf("expected empty characters list, got %d", len(characters))
	}
	return nil
}

func checkCreateCharacterAndGet(ctx context.Context, c *Client) error {
	token, err := createAccountAndToken(ctx, c, "ch"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	id, err := createCharacter(ctx, c, token)
	if err != nil {
		return err
	}
	characters, err := listCharacters(ctx, c, token)
	if err != nil {
		return err
	}
	for _, ch := range characters {
		if got, ok := ch["id"].(float64); ok && int(got) == id {
			return nil
		}
	}
	return fmt.Errorf("created character %d missing from list", id)
}

func checkRestrictedClass(ctx context.Context, c *Client) error {
	token, err := createAccountAndToken(ctx, c, "rc"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "POST", "/characters", map[string]string{
		"name":        "hero" + c.UniqueSuffix(),
		"description": "Forbidden",
		"sex":         "Female",
		"class":       "SeyanDu",
	}, bearer(token))
	if err != nil {
		return err
	}
	return assertStatus(400, status, "restricted class status")
}

func checkUpdateCharacter(ctx context.Context, c *Client) error {
	token, err := createAccountAndToken(ctx, c, "up"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	id, err := createCharacter(ctx, c, token)
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "PUT", fmt.Sprintf("/characters/%d", id), map[string]string{
		"name":        "Updated",
		"description": "Changed",
	}, bearer(token))
	if err != nil {
		return err
	}
	return assertStatus(200, status, "update character status")
}

func checkUpdateCharacterMissingFields(ctx context.Context, c *Client) error {
	token, err := createAccountAndToken(ctx, c, "ub"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	id, err := createCharacter(ctx, c, token)
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "PUT", fmt.Sprintf("/characters/%d", id),
		map[string]string{}, bearer(token))
	if err != nil {
		return err
	}
	return assertStatus(400, status, "update character missing fields status")
}

func checkUpdateCharacterWrongUser(ctx context.Context, c *Client) error {
	tokenA, err := createAccountAndToken(ctx, c, "ua"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	tokenB, err := createAccountAndToken(ctx, c, "ub"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	id, err := createCharacter(ctx, c, tokenA)
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "PUT", fmt.Sprintf("/characters/%d", id),
		map[string]string{"name": "Intruder"}, bearer(tokenB))
	if err != nil {
		return err
	}
	return assertStatus(401, status, "update character wrong user status")
}

func checkDeleteCharacterWrongUser(ctx context.Context, c *Client) error {
	tokenA, err := createAccountAndToken(ctx, c, "da"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	tokenB, err := createAccountAndToken(ctx, c, "db"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	id, err := createCharacter(ctx, c, tokenA)
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "DELETE", fmt.Sprintf("/characters/%d", id), nil, bearer(tokenB))
	if err != nil {
		return err
	}
	return assertStatus(401, status, "delete character wrong user status")
}

func checkDeleteCharacter(ctx context.Context, c *Client) error {
	token, err := createAccountAndToken(ctx, c, "dl"+c.UniqueSuffix())
	if err != nil {
		return err
	}
	id, err := createCharacter(ctx, c, token)
	if err != nil {
		return err
	}
	status, _, err := c.RequestJSON(ctx, "DELETE", fmt.Sprintf("/characters/%d", id), nil, bearer(token))
	if err != nil {
		return err
	}
	if err := assertStatus(200, status, "delete character status"); err != nil {
		return err
	}
	characters, err := listCharacters(ctx, c, token)
	if err != nil {
		return err
	}
	for _, ch := range characters {
		if got, ok := ch["id"].(float64); ok && int(got) == id {
			return fmt.Errorf("character %d still listed after delete", id)
		}
	}
	return nil
}
