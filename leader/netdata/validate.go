/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

// validate verifies that nd contains well-formed TLVs, sub-TLVs, and
// entries all associated with rloc16 (no entry for any other RLOC and
// no duplicate TLVs). Unknown top-level TLV types are tolerated.
func validate(nd *NetworkData, rloc16 uint16) error {
	end := nd.Length()

	for off := 0; off < end; {
		if off+headerSize > end {
			return ErrParse
		}
		t := nd.tlvAt(off)
		if t.End() > end {
			return ErrParse
		}

		switch t.Type() {
		case TypePrefix:
			prefix := PrefixTlv{t}
			if !prefix.IsValid() {
				return ErrParse
			}
			// No duplicate Prefix TLV with the same prefix earlier in
			// the blob.
			if _, ok := nd.findPrefixIn(0, off, prefix.Prefix(), prefix.PrefixLength()); ok {
				return ErrParse
			}
			if err := validatePrefix(prefix, rloc16); err != nil {
				return err
			}

		case TypeService:
			service := ServiceTlv{t}
			if !service.IsValid() {
				return ErrParse
			}
			// No duplicate Service TLV with the same enterprise number
			// and service data.
			if _, ok := nd.findServiceIn(0, off, service.EnterpriseNumber(), service.ServiceData()); ok {
				return ErrParse
			}
			if err := validateService(service, rloc16); err != nil {
				return err
			}
		}

		off = t.End()
	}

	return nil
}

// validatePrefix verifies that prefix contains well-formed sub-TLVs and
// entries all matching rloc16: at most one stable and one temporary
// HasRoute and BorderRouter sub-TLV, each with a single entry for
// rloc16, and at least one of the four present.
func validatePrefix(prefix PrefixTlv, rloc16 uint16) error {
	var foundTempHasRoute, foundStableHasRoute bool
	var foundTempBorderRouter, foundStableBorderRouter bool

	end := prefix.End()

	for off := prefix.subTlvsOffset(); off < end; {
		if off+headerSize > end {
			return ErrParse
		}
		sub := prefix.nd.tlvAt(off)
		if sub.End() > end {
			return ErrParse
		}

		switch sub.Type() {
		case TypeHasRoute:
			hasRoute := HasRouteTlv{sub}

			if hasRoute.IsStable() {
				if foundStableHasRoute {
					return ErrParse
				}
				foundStableHasRoute = true
			} else {
				if foundTempHasRoute {
					return ErrParse
				}
				foundTempHasRoute = true
			}

			if hasRoute.Length() != hasRouteEntrySize {
				return ErrParse
			}
			if hasRoute.Entry(0).Rloc16() != rloc16 {
				return ErrParse
			}

		case TypeBorderRouter:
			borderRouter := BorderRouterTlv{sub}

			if borderRouter.IsStable() {
				if foundStableBorderRouter {
					return ErrParse
				}
				foundStableBorderRouter = true
			} else {
				if foundTempBorderRouter {
					return ErrParse
				}
				foundTempBorderRouter = true
			}

			if borderRouter.Length() != borderRouterEntrySize {
				return ErrParse
			}
			if borderRouter.Entry(0).Rloc16() != rloc16 {
				return ErrParse
			}
		}

		off = sub.End()
	}

	if !foundTempHasRoute && !foundStableHasRoute && !foundTempBorderRouter && !foundStableBorderRouter {
		return ErrParse
	}

	return nil
}

// validateService verifies that service contains a single well-formed
// Server sub-TLV associated with rloc16.
func validateService(service ServiceTlv, rloc16 uint16) error {
	foundServer := false

	end := service.End()

	for off := service.subTlvsOffset(); off < end; {
		if off+headerSize > end {
			return ErrParse
		}
		sub := service.nd.tlvAt(off)
		if sub.End() > end {
			return ErrParse
		}

		if sub.Type() == TypeServer {
			server := ServerTlv{sub}

			if foundServer {
				return ErrParse
			}
			foundServer = true

			if !server.IsValid() || server.Server16() != rloc16 {
				return ErrParse
			}
		}

		off = sub.End()
	}

	if !foundServer {
		return ErrParse
	}

	return nil
}
