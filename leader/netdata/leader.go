/* tnd - Thread Networking Daemon
 *
 * Copyright (C) 2024 the tnd authors.
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package netdata

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/thread-mesh/tnd/leader/core"
	"github.com/thread-mesh/tnd/leader/defn"
	"github.com/thread-mesh/tnd/leader/tmf"
)

// Service ID bounds.
const (
	MinServiceID = 0
	MaxServiceID = 15
)

// DefaultMaxNetDataSyncWait is how long a restored leader waits for its
// Network Data before giving up the role.
const DefaultMaxNetDataSyncWait = 60 * time.Second

// changedFlags accumulates whether a mutation touched the Network Data
// at all, and whether it touched its stable subset.
type changedFlags struct {
	changed       bool
	stableChanged bool
}

func (f *changedFlags) update(stable bool) {
	f.changed = true
	if stable {
		f.stableChanged = true
	}
}

type updateStatus int

const (
	tlvUpdated updateStatus = iota
	tlvRemoved
)

// Deps carries the external collaborators and tunables of a Leader.
// Zero tunables select the defaults; nil Timer, Notifier and Sender
// become no-ops.
type Deps struct {
	RouterTable defn.RouterTable
	Mle         defn.MleRouter
	Notifier    defn.Notifier
	Timer       defn.Timer
	Sender      tmf.Sender

	ContextReuseDelay     time.Duration
	MaxNetDataSyncWait    time.Duration
	SignalNetworkDataFull bool

	// Now is the clock used for context ID deadlines; defaults to
	// time.Now.
	Now func() time.Time
}

// Leader maintains the authoritative, versioned Thread Network Data
// registry: on-mesh prefixes, external routes, and services
// contributed by every border router and service provider in the mesh.
//
// The public methods defined on Leader are serialized by one mutex. The
// lookups promoted from the embedded NetworkData (FindPrefix,
// FindService, Length, Bytes, ...) take no lock, and the TLV views they
// return point into the registry buffer.
type Leader struct {
	NetworkData

	mu sync.Mutex

	version       uint8
	stableVersion uint8

	waitingForNetDataSync bool
	isClone               bool
	signalNetDataFull     bool
	skippedUnknownTlvs    uint64

	contextIDs contextIDs

	routerTable defn.RouterTable
	mle         defn.MleRouter
	notifier    defn.Notifier
	timer       defn.Timer
	sender      tmf.Sender

	maxNetDataSyncWait time.Duration
	now                func() time.Time
}

func NewLeader(deps Deps) *Leader {
	l := &Leader{
		NetworkData:        NetworkData{tlvs: make([]byte, 0, MaxSize)},
		signalNetDataFull:  deps.SignalNetworkDataFull,
		routerTable:        deps.RouterTable,
		mle:                deps.Mle,
		notifier:           deps.Notifier,
		timer:              deps.Timer,
		sender:             deps.Sender,
		maxNetDataSyncWait: deps.MaxNetDataSyncWait,
		now:                deps.Now,
	}

	if l.notifier == nil {
		l.notifier = noopNotifier{}
	}
	if l.timer == nil {
		l.timer = noopTimer{}
	}
	if l.sender == nil {
		l.sender = tmf.NopSender{}
	}
	if l.maxNetDataSyncWait == 0 {
		l.maxNetDataSyncWait = DefaultMaxNetDataSyncWait
	}
	if l.now == nil {
		l.now = time.Now
	}

	l.contextIDs = contextIDs{leader: l, reuseDelay: deps.ContextReuseDelay}
	if l.contextIDs.reuseDelay == 0 {
		l.contextIDs.reuseDelay = DefaultContextReuseDelay
	}

	l.reset()
	return l
}

func (l *Leader) String() string {
	return "netdata-leader"
}

// Reset clears the registry, the version counters, and the context ID set.
func (l *Leader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset()
}

func (l *Leader) reset() {
	l.clear()
	l.version = 0
	l.stableVersion = 0
	l.contextIDs.clear()
}

// Start begins leader operation. When restoring the leader role after a
// reset, server data and commissioner set requests arriving through
// HandleTmf are refused until HandleNetworkDataRestoredAfterReset runs;
// if the sync wait expires first, HandleTimer detaches the device.
// RegisterNetworkData itself does not check this state.
func (l *Leader) Start(mode defn.LeaderStartMode) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waitingForNetDataSync = mode == defn.LeaderStartRestoringAfterReset

	if l.waitingForNetDataSync {
		l.timer.Start(l.maxNetDataSyncWait)
	}
}

func (l *Leader) Version() uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

func (l *Leader) StableVersion() uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stableVersion
}

// SkippedUnknownTlvs returns how many unknown top-level TLVs have been
// accepted without inspection across all registrations.
func (l *Leader) SkippedUnknownTlvs() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.skippedUnknownTlvs
}

// IncrementVersion bumps the version counter if this device is leader.
func (l *Leader) IncrementVersion() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mle.IsLeader() {
		l.incrementVersions(false)
	}
}

// IncrementVersionAndStableVersion bumps both counters if this device
// is leader.
func (l *Leader) IncrementVersionAndStableVersion() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mle.IsLeader() {
		l.incrementVersions(true)
	}
}

func (l *Leader) incrementVersionsFlags(flags changedFlags) {
	if flags.changed {
		l.incrementVersions(flags.stableChanged)
	}
}

func (l *Leader) incrementVersions(includeStable bool) {
	if l.isClone {
		return
	}

	if includeStable {
		l.stableVersion++
	}
	l.version++

	core.Log.Debug(l, "Network Data changed", "version", l.version,
		"stableVersion", l.stableVersion, "digest", xxhash.Sum64(l.tlvs))
	l.notifier.SignalNetDataChanged()
}

// RemoveBorderRouter removes all entries matching rloc16 under the
// given match mode and bumps versions for whatever changed.
func (l *Leader) RemoveBorderRouter(rloc16 uint16, matchMode defn.MatchMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeBorderRouter(rloc16, matchMode)
}

func (l *Leader) removeBorderRouter(rloc16 uint16, matchMode defn.MatchMode) {
	var flags changedFlags
	l.removeRloc(rloc16, matchMode, nil, &flags)
	l.incrementVersionsFlags(flags)
}

// RegisterNetworkData merges the validated submission from rloc16 into
// the registry. Failures are partially committed: entries added before
// the failure stay, empty parent TLVs are cleaned up, and versions are
// bumped for what actually changed.
func (l *Leader) RegisterNetworkData(rloc16 uint16, nd *NetworkData) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.registerNetworkData(rloc16, nd)
}

func (l *Leader) registerNetworkData(rloc16 uint16, nd *NetworkData) error {
	var flags changedFlags

	err := l.register(rloc16, nd, &flags)
	l.incrementVersionsFlags(flags)

	if errors.Is(err, ErrNoBufs) && l.signalNetDataFull {
		l.notifier.SignalNetworkDataFull()
	}
	if err != nil && !l.isClone {
		core.Log.Info(l, "Failed to register network data",
			"rloc16", fmt.Sprintf("0x%04x", rloc16), "err", err)
	}

	return err
}

func (l *Leader) register(rloc16 uint16, nd *NetworkData, flags *changedFlags) error {
	if !l.routerTable.IsAllocated(defn.RouterIDFromRloc16(rloc16)) {
		return ErrNoRoute
	}

	if err := validate(nd, rloc16); err != nil {
		return err
	}

	// Remove all entries matching rloc16 except those also present in
	// the submission, so resubmitted entries survive the sweep.
	l.removeRloc(rloc16, defn.MatchModeRloc16, nd, flags)

	for off := 0; off < nd.Length(); {
		t := nd.tlvAt(off)

		switch t.Type() {
		case TypePrefix:
			if err := l.addPrefix(PrefixTlv{t}, flags); err != nil {
				return err
			}
		case TypeService:
			if err := l.addService(ServiceTlv{t}, flags); err != nil {
				return err
			}
		default:
			if !l.isClone {
				l.skippedUnknownTlvs++
				core.Log.Debug(l, "Skipped unknown Network Data TLV", "type", uint8(t.Type()))
			}
		}

		off = t.End()
	}

	return nil
}

func (l *Leader) addPrefix(src PrefixTlv, flags *changedFlags) error {
	dst, ok := l.FindPrefix(src.Prefix(), src.PrefixLength())
	if !ok {
		off, err := l.appendTlv(prefixTlvSize(src.PrefixLength()))
		if err != nil {
			return err
		}
		initTlv(l.tlvs, off, TypePrefix, 2+prefixLengthToBytes(src.PrefixLength()), false)
		l.tlvs[off+2] = src.DomainID()
		l.tlvs[off+3] = src.PrefixLength()
		copy(l.tlvs[off+4:], src.Prefix())
		dst = PrefixTlv{l.tlvAt(off)}
	}

	var err error
	for off := src.subTlvsOffset(); off < src.End() && err == nil; {
		sub := src.nd.tlvAt(off)
		switch sub.Type() {
		case TypeHasRoute:
			err = l.addHasRoute(HasRouteTlv{sub}, dst, flags)
		case TypeBorderRouter:
			err = l.addBorderRouter(BorderRouterTlv{sub}, dst, flags)
		}
		off = sub.End()
	}

	// Recomputes the stable flag, and removes the prefix again if a
	// failed insertion left it without any sub-TLV.
	l.updatePrefix(dst)

	return err
}

func (l *Leader) addHasRoute(src HasRouteTlv, dst PrefixTlv, flags *changedFlags) error {
	entry := src.Entry(0)

	dstHasRoute, ok := dst.FindHasRoute(src.IsStable())
	if !ok {
		if !l.CanInsert(headerSize + hasRouteEntrySize) {
			return ErrNoBufs
		}

		off := dst.End()
		l.insert(off, headerSize)
		dst.increaseLength(headerSize)
		initTlv(l.tlvs, off, TypeHasRoute, 0, src.IsStable())
		dstHasRoute = HasRouteTlv{l.tlvAt(off)}
	}

	if dstHasRoute.ContainsEntry(entry) {
		return nil
	}

	if !l.CanInsert(hasRouteEntrySize) {
		return ErrNoBufs
	}

	at := dstHasRoute.End()
	l.insert(at, hasRouteEntrySize)
	dstHasRoute.increaseLength(hasRouteEntrySize)
	dst.increaseLength(hasRouteEntrySize)
	copy(l.tlvs[at:at+hasRouteEntrySize], entry)

	flags.update(dstHasRoute.IsStable())
	return nil
}

func (l *Leader) addBorderRouter(src BorderRouterTlv, dst PrefixTlv, flags *changedFlags) error {
	entry := src.Entry(0)

	dstBorderRouter, haveBorderRouter := dst.FindBorderRouter(src.IsStable())
	dstContext, haveContext := dst.FindContext()
	contextID := uint8(0)

	if !haveContext {
		// Reserve a context ID first so exhaustion fails before a
		// Border Router sub-TLV could be inserted.
		id, err := l.contextIDs.getUnallocatedID()
		if err != nil {
			return ErrNoBufs
		}
		contextID = id
	}

	if !haveBorderRouter {
		need := headerSize + borderRouterEntrySize
		if !haveContext {
			need += contextTlvSize
		}
		if !l.CanInsert(need) {
			return ErrNoBufs
		}

		off := dst.End()
		l.insert(off, headerSize)
		dst.increaseLength(headerSize)
		initTlv(l.tlvs, off, TypeBorderRouter, 0, src.IsStable())
		dstBorderRouter = BorderRouterTlv{l.tlvAt(off)}
	}

	if !haveContext {
		if !l.CanInsert(borderRouterEntrySize + contextTlvSize) {
			return ErrNoBufs
		}

		off := dst.End()
		l.insert(off, contextTlvSize)
		dst.increaseLength(contextTlvSize)
		initTlv(l.tlvs, off, TypeContext, 2, false)
		l.tlvs[off+2] = contextID & contextIDMask
		l.tlvs[off+3] = dst.PrefixLength()
		dstContext = ContextTlv{l.tlvAt(off)}
	}

	if src.IsStable() {
		dstContext.setStable()
	}
	dstContext.setCompress()
	l.contextIDs.markAsInUse(dstContext.ContextID())

	if dstBorderRouter.ContainsEntry(entry) {
		return nil
	}

	if !l.CanInsert(borderRouterEntrySize) {
		return ErrNoBufs
	}

	at := dstBorderRouter.End()
	l.insert(at, borderRouterEntrySize)
	dstBorderRouter.increaseLength(borderRouterEntrySize)
	dst.increaseLength(borderRouterEntrySize)
	copy(l.tlvs[at:at+borderRouterEntrySize], entry)

	flags.update(dstBorderRouter.IsStable())
	return nil
}

func (l *Leader) addService(src ServiceTlv, flags *changedFlags) error {
	dst, ok := l.FindService(src.EnterpriseNumber(), src.ServiceData())
	if !ok {
		serviceID, err := l.allocateServiceID()
		if err != nil {
			return ErrNoBufs
		}

		off, err := l.appendTlv(serviceTlvSize(len(src.ServiceData())))
		if err != nil {
			return err
		}
		initTlv(l.tlvs, off, TypeService, serviceFixedSize+len(src.ServiceData()), false)
		l.tlvs[off+3] = serviceID
		binary.BigEndian.PutUint32(l.tlvs[off+4:], src.EnterpriseNumber())
		l.tlvs[off+8] = uint8(len(src.ServiceData()))
		copy(l.tlvs[off+9:], src.ServiceData())
		dst = ServiceTlv{l.tlvAt(off)}
	}

	var err error
	if server, ok := src.FindServer(); ok {
		err = l.addServer(server, dst, flags)
	}

	// Recomputes the stable flag, and removes the service again if the
	// server could not be appended.
	l.updateService(dst)

	return err
}

func (l *Leader) addServer(src ServerTlv, dst ServiceTlv, flags *changedFlags) error {
	if containsMatchingServer(&dst, src) {
		return nil
	}

	size := src.Size()
	if !l.CanInsert(size) {
		return ErrNoBufs
	}

	at := dst.End()
	l.insert(at, size)
	dst.increaseLength(size)
	copy(l.tlvs[at:at+size], src.Bytes())

	flags.update(src.IsStable())
	return nil
}

func (l *Leader) allocateServiceID() (uint8, error) {
	if l.isClone {
		// A clone only checks for capacity and must not allocate from
		// the real ID space.
		return MinServiceID, nil
	}

	for id := uint8(MinServiceID); id <= MaxServiceID; id++ {
		if _, ok := l.FindServiceByID(id); !ok {
			core.Log.Info(l, "Allocated Service ID", "serviceId", id)
			return id, nil
		}
	}

	return 0, ErrNotFound
}

// updateTlv removes t from the registry if it has no sub-TLVs left,
// otherwise recomputes its stable flag from its sub-TLVs.
func (l *Leader) updateTlv(t Tlv, subTlvsOffset int) updateStatus {
	if subTlvsOffset == t.End() {
		l.removeTlv(t)
		return tlvRemoved
	}

	stable := false
	for off := subTlvsOffset; off < t.End(); {
		sub := l.tlvAt(off)
		if sub.IsStable() {
			stable = true
			break
		}
		off = sub.End()
	}

	if stable {
		t.setStable()
	} else {
		t.clearStable()
	}
	return tlvUpdated
}

func (l *Leader) updatePrefix(prefix PrefixTlv) updateStatus {
	return l.updateTlv(prefix.Tlv, prefix.subTlvsOffset())
}

func (l *Leader) updateService(service ServiceTlv) updateStatus {
	return l.updateTlv(service.Tlv, service.subTlvsOffset())
}

// removeRloc removes entries matching rloc16 under matchMode, except
// entries also present in exclude (nil for no exclusion).
func (l *Leader) removeRloc(rloc16 uint16, matchMode defn.MatchMode, exclude *NetworkData, flags *changedFlags) {
	for off := 0; off < l.Length(); {
		t := l.tlvAt(off)

		switch t.Type() {
		case TypePrefix:
			prefix := PrefixTlv{t}
			var excludePrefix *PrefixTlv
			if exclude != nil {
				if p, ok := exclude.FindPrefix(prefix.Prefix(), prefix.PrefixLength()); ok {
					excludePrefix = &p
				}
			}

			l.removeRlocInPrefix(prefix, rloc16, matchMode, excludePrefix, flags)

			if l.updatePrefix(prefix) == tlvRemoved {
				// The next TLV now sits at the same offset.
				continue
			}

		case TypeService:
			service := ServiceTlv{t}
			var excludeService *ServiceTlv
			if exclude != nil {
				if s, ok := exclude.FindService(service.EnterpriseNumber(), service.ServiceData()); ok {
					excludeService = &s
				}
			}

			l.removeRlocInService(service, rloc16, matchMode, excludeService, flags)

			if l.updateService(service) == tlvRemoved {
				continue
			}
		}

		off = l.tlvAt(off).End()
	}
}

func (l *Leader) removeRlocInPrefix(prefix PrefixTlv, rloc16 uint16, matchMode defn.MatchMode,
	excludePrefix *PrefixTlv, flags *changedFlags) {
	for off := prefix.subTlvsOffset(); off < prefix.End(); {
		sub := l.tlvAt(off)

		switch sub.Type() {
		case TypeHasRoute:
			l.removeRlocInHasRoute(prefix, HasRouteTlv{sub}, rloc16, matchMode, excludePrefix, flags)

			if sub.Length() == 0 {
				prefix.decreaseLength(headerSize)
				l.removeTlv(sub)
				continue
			}

		case TypeBorderRouter:
			l.removeRlocInBorderRouter(prefix, BorderRouterTlv{sub}, rloc16, matchMode, excludePrefix, flags)

			if sub.Length() == 0 {
				prefix.decreaseLength(headerSize)
				l.removeTlv(sub)
				continue
			}
		}

		off = l.tlvAt(off).End()
	}

	if context, ok := prefix.FindContext(); ok {
		if _, ok := prefix.FindAnyBorderRouter(); !ok {
			context.clearCompress()
			l.contextIDs.scheduleToRemove(context.ContextID())
		} else {
			context.setCompress()
			l.contextIDs.markAsInUse(context.ContextID())
		}
	}
}

func (l *Leader) removeRlocInHasRoute(prefix PrefixTlv, hasRoute HasRouteTlv, rloc16 uint16,
	matchMode defn.MatchMode, excludePrefix *PrefixTlv, flags *changedFlags) {
	for off := hasRoute.valueOffset(); off < hasRoute.End(); {
		entry := HasRouteEntry(l.tlvs[off : off+hasRouteEntrySize])

		if matchMode.Match(entry.Rloc16(), rloc16) &&
			!containsMatchingHasRouteEntry(excludePrefix, hasRoute.IsStable(), entry) {
			flags.update(hasRoute.IsStable())
			hasRoute.decreaseLength(hasRouteEntrySize)
			prefix.decreaseLength(hasRouteEntrySize)
			l.remove(off, hasRouteEntrySize)
			continue
		}

		off += hasRouteEntrySize
	}
}

func (l *Leader) removeRlocInBorderRouter(prefix PrefixTlv, borderRouter BorderRouterTlv, rloc16 uint16,
	matchMode defn.MatchMode, excludePrefix *PrefixTlv, flags *changedFlags) {
	for off := borderRouter.valueOffset(); off < borderRouter.End(); {
		entry := BorderRouterEntry(l.tlvs[off : off+borderRouterEntrySize])

		if matchMode.Match(entry.Rloc16(), rloc16) &&
			!containsMatchingBorderRouterEntry(excludePrefix, borderRouter.IsStable(), entry) {
			flags.update(borderRouter.IsStable())
			borderRouter.decreaseLength(borderRouterEntrySize)
			prefix.decreaseLength(borderRouterEntrySize)
			l.remove(off, borderRouterEntrySize)
			continue
		}

		off += borderRouterEntrySize
	}
}

func (l *Leader) removeRlocInService(service ServiceTlv, rloc16 uint16, matchMode defn.MatchMode,
	excludeService *ServiceTlv, flags *changedFlags) {
	for off := service.subTlvsOffset(); off < service.End(); {
		sub := l.tlvAt(off)

		if sub.Type() == TypeServer {
			server := ServerTlv{sub}

			if matchMode.Match(server.Server16(), rloc16) && !containsMatchingServer(excludeService, server) {
				size := server.Size()
				flags.update(server.IsStable())
				l.removeTlv(sub)
				service.decreaseLength(size)
				continue
			}
		}

		off = l.tlvAt(off).End()
	}
}

// RemoveContext strips the Context TLV carrying contextID from every
// prefix, removing prefixes this empties, and bumps both versions.
func (l *Leader) RemoveContext(contextID uint8) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeContext(contextID)
}

func (l *Leader) removeContext(contextID uint8) {
	for off := 0; off < l.Length(); {
		t := l.tlvAt(off)

		if t.Type() == TypePrefix {
			prefix := PrefixTlv{t}
			l.removeContextInPrefix(prefix, contextID)

			if l.updatePrefix(prefix) == tlvRemoved {
				continue
			}
		}

		off = l.tlvAt(off).End()
	}

	l.incrementVersions(true)
}

func (l *Leader) removeContextInPrefix(prefix PrefixTlv, contextID uint8) {
	for off := prefix.subTlvsOffset(); off < prefix.End(); {
		sub := l.tlvAt(off)

		if sub.Type() == TypeContext && (ContextTlv{sub}).ContextID() == contextID {
			size := sub.Size()
			l.removeTlv(sub)
			prefix.decreaseLength(size)
			continue
		}

		off = l.tlvAt(off).End()
	}
}

// HandleNetworkDataRestoredAfterReset reconciles the restored Network
// Data against the router table and resumes normal operation.
func (l *Leader) HandleNetworkDataRestoredAfterReset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.waitingForNetDataSync = false

	var flags changedFlags

	// Remove entries from any unallocated router ID. This guards
	// against a leader reset racing a router ID release that never made
	// it into the propagated Network Data.
	it := ServerIterator{}
	for {
		rloc16, err := l.getNextServer(&it)
		if err != nil {
			break
		}
		if !l.routerTable.IsAllocated(defn.RouterIDFromRloc16(rloc16)) {
			// The sweep mutates the registry and invalidates the
			// iterator, so restart from the beginning.
			l.removeRloc(rloc16, defn.MatchModeRouterID, nil, &flags)
			it = ServerIterator{}
		}
	}

	l.incrementVersionsFlags(flags)

	// Synchronize the context ID set with the restored Network Data.
	for off := 0; off < l.Length(); {
		t := l.tlvAt(off)

		if t.Type() == TypePrefix {
			if context, ok := (PrefixTlv{t}).FindContext(); ok {
				l.contextIDs.markAsInUse(context.ContextID())

				if !context.IsCompress() {
					l.contextIDs.scheduleToRemove(context.ContextID())
				}
			}
		}

		off = t.End()
	}
}

// HandleTimer is the shared single-shot timer callback: sync-wait
// expiry while restoring, context ID reclamation otherwise.
func (l *Leader) HandleTimer() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.waitingForNetDataSync {
		core.Log.Info(l, "Timed out waiting for netdata on restoring leader role after reset")
		l.mle.BecomeDetached()
	} else {
		l.contextIDs.handleTimer()
	}
}

// ServerIterator walks the (Service, Server) pairs of the registry. The
// zero value starts from the beginning. Any registry mutation
// invalidates it.
type ServerIterator struct {
	tlvOff int
	subOff int
}

// GetNextServer returns the RLOC16 of the next Server sub-TLV.
func (l *Leader) GetNextServer(it *ServerIterator) (uint16, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rloc16, err := l.getNextServer(it)
	return rloc16, err == nil
}

func (l *Leader) getNextServer(it *ServerIterator) (uint16, error) {
	for it.tlvOff < l.Length() {
		t := l.tlvAt(it.tlvOff)

		if t.Type() == TypeService {
			service := ServiceTlv{t}
			if it.subOff < service.subTlvsOffset() {
				it.subOff = service.subTlvsOffset()
			}
			for it.subOff < service.End() {
				sub := l.tlvAt(it.subOff)
				it.subOff = sub.End()
				if sub.Type() == TypeServer {
					return ServerTlv{sub}.Server16(), nil
				}
			}
		}

		it.tlvOff = t.End()
		it.subOff = 0
	}

	return 0, ErrNotFound
}

// CheckForNetDataGettingFull determines whether nd (the local Network
// Data of this device) would still fit in the registry by replaying it
// against a throwaway clone, as if this device were the leader. Entries
// matching oldRloc16 (unless ShortAddrInvalid) are removed first. When
// SignalNetworkDataFull is enabled, a replay failing with ErrNoBufs
// signals the notifier; the real registry, timers and allocators are
// never touched. Nothing is checked while this device is the leader.
func (l *Leader) CheckForNetDataGettingFull(nd *NetworkData, oldRloc16 uint16) {
	l.mu.Lock()
	if l.mle.IsLeader() {
		l.mu.Unlock()
		return
	}
	clone := l.cloneForCapacityCheck()
	l.mu.Unlock()

	if oldRloc16 != defn.ShortAddrInvalid {
		clone.removeBorderRouter(oldRloc16, defn.MatchModeRloc16)
	}
	clone.registerNetworkData(l.mle.Rloc16(), nd)
}

func (l *Leader) cloneForCapacityCheck() *Leader {
	clone := &Leader{
		NetworkData:        NetworkData{tlvs: append(make([]byte, 0, MaxSize), l.tlvs...)},
		version:            l.version,
		stableVersion:      l.stableVersion,
		isClone:            true,
		signalNetDataFull:  l.signalNetDataFull,
		routerTable:        l.routerTable,
		mle:                l.mle,
		notifier:           l.notifier,
		timer:              noopTimer{},
		sender:             tmf.NopSender{},
		maxNetDataSyncWait: l.maxNetDataSyncWait,
		now:                l.now,
	}

	clone.contextIDs = l.contextIDs
	clone.contextIDs.leader = clone
	clone.contextIDs.isClone = true

	return clone
}

// CommissioningData returns a copy of the stored Commissioning Data TLV
// value, or nil when none exists.
func (l *Leader) CommissioningData() []byte {
	l.mu.Lock()
	defer l.mu.Unlock()

	data := l.commissioningData()
	if data == nil {
		return nil
	}
	return bytes.Clone(data)
}

func (l *Leader) commissioningData() []byte {
	if t, ok := l.findCommissioningData(); ok {
		return t.Value()
	}
	return nil
}

// SetCommissioningData installs data as the Commissioning Data TLV
// (removing it when data is empty) and bumps both version counters.
func (l *Leader) SetCommissioningData(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.setCommissioningData(data)
}

func (l *Leader) setCommissioningData(data []byte) error {
	existingSize := 0
	existing, haveExisting := l.findCommissioningData()
	if haveExisting {
		existingSize = existing.Size()
	}

	newSize := 0
	if len(data) > 0 {
		newSize = headerSize + len(data)
	}
	if l.Length()-existingSize+newSize > MaxSize {
		return ErrNoBufs
	}

	if haveExisting {
		l.removeTlv(existing)
	}

	if len(data) > 0 {
		off, err := l.appendTlv(newSize)
		if err != nil {
			return err
		}
		initTlv(l.tlvs, off, TypeCommissioningData, len(data), false)
		copy(l.tlvs[off+headerSize:], data)
	}

	l.incrementVersions(true)
	return nil
}

func containsMatchingHasRouteEntry(prefix *PrefixTlv, stable bool, entry HasRouteEntry) bool {
	if prefix == nil {
		return false
	}
	hasRoute, ok := prefix.FindHasRoute(stable)
	return ok && hasRoute.ContainsEntry(entry)
}

func containsMatchingBorderRouterEntry(prefix *PrefixTlv, stable bool, entry BorderRouterEntry) bool {
	if prefix == nil {
		return false
	}
	borderRouter, ok := prefix.FindBorderRouter(stable)
	return ok && borderRouter.ContainsEntry(entry)
}

// containsMatchingServer reports whether service (nil allowed) has a
// Server sub-TLV byte-identical to server under the same stable flag.
func containsMatchingServer(service *ServiceTlv, server ServerTlv) bool {
	if service == nil {
		return false
	}

	end := service.End()
	for off := service.subTlvsOffset(); off+headerSize <= end; {
		sub := service.nd.tlvAt(off)
		if sub.End() > end {
			break
		}
		if sub.Type() == TypeServer && sub.IsStable() == server.IsStable() &&
			bytes.Equal(sub.Bytes(), server.Bytes()) {
			return true
		}
		off = sub.End()
	}

	return false
}

type noopTimer struct{}

func (noopTimer) Start(time.Duration)       {}
func (noopTimer) FireAt(time.Time)          {}
func (noopTimer) FireAtIfEarlier(time.Time) {}
func (noopTimer) Stop()                     {}

type noopNotifier struct{}

func (noopNotifier) SignalNetDataChanged()  {}
func (noopNotifier) SignalNetworkDataFull() {}
