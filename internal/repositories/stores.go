package repositories

import "voyage-backend/internal/services"

var (
	_ services.UserStore       = (*UserRepository)(nil)
	_ services.PermissionStore = (*PagePermissionRepository)(nil)
	_ services.ClientStore     = (*ClientRepository)(nil)
	_ services.DossierStore    = (*DossierVoyageRepository)(nil)
	_ services.PaiementStore   = (*PaiementRepository)(nil)
	_ services.FactureStore    = (*FactureRepository)(nil)
)
