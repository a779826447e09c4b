package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrAccountDisabled    ErrCode = "ACCOUNT_DISABLED"
	ErrWrongPassword      ErrCode = "WRONG_PASSWORD"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden        ErrCode = "FORBIDDEN"
	ErrPermissionDenied ErrCode = "PERMISSION_DENIED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidDate    ErrCode = "INVALID_DATE"
	ErrInvalidRange   ErrCode = "INVALID_DATE_RANGE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrEmailTaken       ErrCode = "EMAIL_TAKEN"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Students & guardians ──────────────────────────────────────────
	ErrNoFinancialGuardian   ErrCode = "NO_FINANCIAL_GUARDIAN"
	ErrGuardianAlreadyLinked ErrCode = "GUARDIAN_ALREADY_LINKED"
	ErrGuardianNotLinked     ErrCode = "GUARDIAN_NOT_LINKED"
	ErrNotGuardianProfile    ErrCode = "NOT_GUARDIAN_PROFILE"
	ErrGuardianStillLinked   ErrCode = "GUARDIAN_STILL_LINKED"
	ErrInvalidTeacher        ErrCode = "INVALID_TEACHER"
	ErrInvalidClass          ErrCode = "INVALID_CLASS"
	ErrInvalidStudent        ErrCode = "INVALID_STUDENT"
	ErrInvalidEvent          ErrCode = "INVALID_EVENT"
	ErrClassFull             ErrCode = "CLASS_FULL"
	ErrClassNameTaken        ErrCode = "CLASS_NAME_TAKEN"
	ErrInvalidSpreadsheet    ErrCode = "INVALID_SPREADSHEET"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "E-mail ou senha incorretos."
	case ErrAccountDisabled:
		return "Esta conta está desativada."
	case ErrWrongPassword:
		return "A senha atual está incorreta."
	case ErrSessionInvalidated:
		return "Sua sessão foi encerrada. Faça login novamente."
	case ErrTokenRequired:
		return "Token de autenticação obrigatório."
	case ErrTokenInvalid:
		return "Token de autenticação inválido ou expirado."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Você não tem permissão para acessar este recurso."
	case ErrPermissionDenied:
		return "Permissão negada."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Falha na validação. Verifique os dados enviados."
	case ErrInvalidID:
		return "Formato de ID inválido."
	case ErrInvalidPayload:
		return "Conteúdo da requisição inválido."
	case ErrInvalidDate:
		return "Data inválida. Use o formato AAAA-MM-DD."
	case ErrInvalidRange:
		return "A data final não pode ser anterior à data inicial."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Registro não encontrado."
	case ErrConflict:
		return "Registro já existe."
	case ErrEmailTaken:
		return "Este e-mail já está em uso."
	case ErrDependencyExists:
		return "O registro não pode ser excluído porque ainda é usado por outros dados."
	case ErrActionForbidden:
		return "Esta ação não é permitida."

	// ─── Students & guardians ──────────────────────────────────────────
	case ErrNoFinancialGuardian:
		return "Ao menos um responsável deve ser o responsável financeiro."
	case ErrGuardianAlreadyLinked:
		return "Este responsável já está vinculado ao aluno."
	case ErrGuardianNotLinked:
		return "Este responsável não está vinculado ao aluno."
	case ErrNotGuardianProfile:
		return "O perfil informado não é de um responsável."
	case ErrGuardianStillLinked:
		return "O responsável ainda está vinculado a alunos."
	case ErrInvalidTeacher:
		return "O professor deve ser um educador ativo da instituição."
	case ErrInvalidClass:
		return "Turma não encontrada."
	case ErrInvalidStudent:
		return "Aluno não encontrado."
	case ErrInvalidEvent:
		return "Evento não encontrado."
	case ErrClassFull:
		return "A turma atingiu a capacidade máxima."
	case ErrClassNameTaken:
		return "Já existe uma turma com este nome."
	case ErrInvalidSpreadsheet:
		return "Planilha inválida."

	// ─── Media ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "O envio de um arquivo é obrigatório."
	case ErrUnsupportedFile:
		return "Tipo de arquivo não suportado."
	case ErrFileTooLarge:
		return "O arquivo excede o tamanho máximo."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Muitas tentativas. Tente novamente mais tarde."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Erro interno do servidor."
	default:
		return "Ocorreu um erro inesperado."
	}
}
