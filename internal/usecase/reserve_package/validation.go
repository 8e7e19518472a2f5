package reserve_package

import "fmt"

const maxPackageServices = 10

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.ClientID <= 0 {
		return fmt.Errorf("%w: clientID must be positive", ErrInvalidInput)
	}

	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.LocationID <= 0 {
		return fmt.Errorf("%w: locationID must be positive", ErrInvalidInput)
	}

	if len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: serviceIDs must not be empty", ErrInvalidInput)
	}

	if len(req.ServiceIDs) > maxPackageServices {
		return fmt.Errorf("%w: package cannot contain more than %d services", ErrInvalidInput, maxPackageServices)
	}

	for i, id := range req.ServiceIDs {
		if id <= 0 {
			return fmt.Errorf("%w: serviceIDs[%d] must be positive", ErrInvalidInput, i)
		}
	}

	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	if err := req.StartTime.Validate(); err != nil {
		return fmt.Errorf("%w: invalid startTime: %v", ErrInvalidInput, err)
	}

	return nil
}
