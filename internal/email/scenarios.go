package email

// Un escenario es una categoría lógica de email (password_reset, etc)
// con un contrato fijo de variables. La tabla es estática a propósito:
// la validación de variables queda como función pura, sin reflection.

// Tipos declarables para variables de escenario.
const (
	VarString = "string"
	VarNumber = "number"
	VarDate   = "date"
)

// VarSpec declara una variable de un escenario.
type VarSpec struct {
	Name    string
	Type    string
	Default any // sólo para opcionales
}

// Scenario declara el contrato de variables de un tipo de email.
type Scenario struct {
	Name     string
	Required []VarSpec
	Optional []VarSpec
}

// Escenarios del CRM. Agregar uno nuevo implica registrarlo acá y
// proveer sus templates en templates.go para cada idioma soportado.
var scenarios = map[string]Scenario{
	"password_reset": {
		Name: "password_reset",
		Required: []VarSpec{
			{Name: "reset_link", Type: VarString},
			{Name: "user_name", Type: VarString},
			{Name: "expires_in_hours", Type: VarNumber},
		},
		Optional: []VarSpec{
			{Name: "support_email", Type: VarString, Default: ""},
		},
	},
	"welcome": {
		Name: "welcome",
		Required: []VarSpec{
			{Name: "user_name", Type: VarString},
		},
		Optional: []VarSpec{
			{Name: "login_url", Type: VarString, Default: ""},
		},
	},
	"invoice_created": {
		Name: "invoice_created",
		Required: []VarSpec{
			{Name: "customer_name", Type: VarString},
			{Name: "invoice_number", Type: VarString},
			{Name: "amount", Type: VarString},
			{Name: "due_date", Type: VarDate},
		},
		Optional: []VarSpec{
			{Name: "payment_link", Type: VarString, Default: ""},
		},
	},
	"appointment_reminder": {
		Name: "appointment_reminder",
		Required: []VarSpec{
			{Name: "patient_name", Type: VarString},
			{Name: "appointment_date", Type: VarDate},
			{Name: "clinic_name", Type: VarString},
		},
		Optional: []VarSpec{
			{Name: "notes", Type: VarString, Default: ""},
		},
	},
	"device_alert": {
		Name: "device_alert",
		Required: []VarSpec{
			{Name: "device_name", Type: VarString},
			{Name: "alert_message", Type: VarString},
		},
		Optional: []VarSpec{
			{Name: "severity", Type: VarString, Default: "info"},
		},
	},
	"test": {
		Name:     "test",
		Required: nil,
		Optional: []VarSpec{
			{Name: "tenant_name", Type: VarString, Default: ""},
		},
	},
}

// LookupScenario retorna el contrato de un escenario registrado.
func LookupScenario(name string) (Scenario, bool) {
	s, ok := scenarios[name]
	return s, ok
}

// ScenarioNames lista los escenarios registrados (para validación de input).
func ScenarioNames() []string {
	out := make([]string, 0, len(scenarios))
	for name := range scenarios {
		out = append(out, name)
	}
	return out
}
