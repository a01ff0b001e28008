package native

import (
	"encoding/binary"
	"fmt"

	"github.com/synnergy-network/n3node/internal/crypto/keys"
	"github.com/synnergy-network/n3node/internal/util"
	"github.com/synnergy-network/n3node/internal/vm"
	"github.com/synnergy-network/n3node/internal/vm/stackitem"
)

// OracleContract manages off-chain data requests made by deployed contracts
// (§4.6): a contract pays a fixed price to submit a request, a node
// designated under RoleOracle by RoleManagement submits the response, and
// the request transitions from pending to a terminal status.
type OracleContract struct {
	methods  map[string]*Method
	registry *Registry
}

const oracleID = -9

const (
	prefixOracleRequest = 0x05
	prefixNextRequestID = 0x06
)

// OracleRequestPrice is the fixed GAS cost (in datoshi) of one request.
const OracleRequestPrice = 50_000_000 // 0.5 GAS

const (
	maxURLLength      = 256
	maxFilterLength   = 128
	maxCallbackLength = 32
	maxUserDataLength = 512
)

var oracleHash = contractHash("OracleContract")

// OracleRequestStatus tracks a request's lifecycle.
type OracleRequestStatus byte

const (
	OracleStatusPending   OracleRequestStatus = 0
	OracleStatusFulfilled OracleRequestStatus = 1
	OracleStatusRejected  OracleRequestStatus = 2
)

// OracleResponseCode mirrors the HTTP-adjacent codes a response can carry.
type OracleResponseCode byte

const (
	OracleCodeSuccess              OracleResponseCode = 0x00
	OracleCodeProtocolNotSupported OracleResponseCode = 0x10
	OracleCodeNotFound             OracleResponseCode = 0x14
	OracleCodeTimeout              OracleResponseCode = 0x16
	OracleCodeError                OracleResponseCode = 0xff
)

// OracleRequest is the persisted state of one outstanding or resolved
// request.
type OracleRequest struct {
	ID                 uint64
	RequestingContract util.Uint160
	URL                string
	Filter             string
	Callback           string
	UserData           []byte
	GasForResponse     int64
	BlockIndex         uint32
	Status             OracleRequestStatus
	ResponseCode       OracleResponseCode
	Result             []byte
}

var (
	ErrOracleRequestNotFound = fmt.Errorf("oracle: request not found")
	ErrOracleRequestTooLarge = fmt.Errorf("oracle: request field exceeds maximum length")
	ErrOracleNotAuthorized   = fmt.Errorf("oracle: caller is not a designated oracle node")
	ErrOracleAlreadyResolved = fmt.Errorf("oracle: request already resolved")
)

// NewOracleContract builds the contract. registry is consulted to confirm a
// finish call comes from a node currently designated under RoleOracle; it
// may be nil in tests that drive authorization some other way.
func NewOracleContract(registry *Registry) *OracleContract {
	o := &OracleContract{registry: registry}
	o.methods = map[string]*Method{
		"request":  {Name: "request", RequiredFlag: vm.CallFlagStates | vm.CallFlagAllowNotify, GasCost: 1 << 15, Handler: o.request},
		"getPrice": {Name: "getPrice", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 4, Handler: o.getPrice},
		"finish":   {Name: "finish", RequiredFlag: vm.CallFlagStates | vm.CallFlagAllowNotify, GasCost: 1 << 15, Handler: o.finish},
		"getRequest": {Name: "getRequest", RequiredFlag: vm.CallFlagReadStates, GasCost: 1 << 10, Handler: o.getRequest},
		"verify":   {Name: "verify", RequiredFlag: vm.CallFlagNone, GasCost: 1 << 15, Handler: o.verify},
	}
	return o
}

func (o *OracleContract) ID() int32                  { return oracleID }
func (o *OracleContract) Hash() util.Uint160          { return oracleHash }
func (o *OracleContract) Name() string                { return "OracleContract" }
func (o *OracleContract) Methods() map[string]*Method { return o.methods }

func requestKey(id uint64) []byte {
	suffix := make([]byte, 8)
	binary.BigEndian.PutUint64(suffix, id)
	return storageKey(oracleID, prefixOracleRequest, suffix)
}

func (o *OracleContract) nextRequestID(e *vm.ApplicationEngine) uint64 {
	snap := snapshotOf(e)
	key := storageKey(oracleID, prefixNextRequestID, nil)
	v, ok := snap.Get(key)
	var id uint64 = 1
	if ok {
		id = binary.LittleEndian.Uint64(v) + 1
	}
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, id)
	snap.Put(key, buf)
	return id
}

func encodeOracleRequest(r *OracleRequest) []byte {
	urlB, filterB, cbB := []byte(r.URL), []byte(r.Filter), []byte(r.Callback)
	out := make([]byte, 0, 20+2+len(urlB)+2+len(filterB)+1+len(cbB)+4+8+4+4+1+1+4+len(r.UserData)+4+len(r.Result))
	out = append(out, r.RequestingContract.BytesLE()...)
	out = appendUint16Bytes(out, urlB)
	out = appendUint16Bytes(out, filterB)
	out = appendUint16Bytes(out, cbB)
	out = append(out, leUint64(uint64(r.GasForResponse))...)
	out = appendUint32(out, r.BlockIndex)
	out = append(out, byte(r.Status))
	out = append(out, byte(r.ResponseCode))
	out = appendUint16Bytes(out, r.UserData)
	out = appendUint16Bytes(out, r.Result)
	return out
}

// appendUint16Bytes is a local length-prefixed-field helper kept separate
// from internal/io's varint-based codec: request records are short, fixed
// fields and don't need a general-purpose reader/writer.
func appendUint16Bytes(out []byte, b []byte) []byte {
	l := make([]byte, 2)
	binary.LittleEndian.PutUint16(l, uint16(len(b)))
	out = append(out, l...)
	out = append(out, b...)
	return out
}

func appendUint32(out []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return append(out, b...)
}

func leUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

func decodeOracleRequest(id uint64, enc []byte) (*OracleRequest, error) {
	if len(enc) < 20 {
		return nil, fmt.Errorf("%w: truncated record", ErrOracleRequestNotFound)
	}
	r := &OracleRequest{ID: id}
	copy(r.RequestingContract[:], enc[:20])
	off := 20

	readStr := func() (string, error) {
		if off+2 > len(enc) {
			return "", fmt.Errorf("%w: truncated field", ErrOracleRequestNotFound)
		}
		l := int(binary.LittleEndian.Uint16(enc[off : off+2]))
		off += 2
		if off+l > len(enc) {
			return "", fmt.Errorf("%w: truncated field", ErrOracleRequestNotFound)
		}
		s := string(enc[off : off+l])
		off += l
		return s, nil
	}
	readBytes := func() ([]byte, error) {
		if off+2 > len(enc) {
			return nil, fmt.Errorf("%w: truncated field", ErrOracleRequestNotFound)
		}
		l := int(binary.LittleEndian.Uint16(enc[off : off+2]))
		off += 2
		if off+l > len(enc) {
			return nil, fmt.Errorf("%w: truncated field", ErrOracleRequestNotFound)
		}
		b := append([]byte(nil), enc[off:off+l]...)
		off += l
		return b, nil
	}

	var err error
	if r.URL, err = readStr(); err != nil {
		return nil, err
	}
	if r.Filter, err = readStr(); err != nil {
		return nil, err
	}
	if r.Callback, err = readStr(); err != nil {
		return nil, err
	}
	if off+8 > len(enc) {
		return nil, fmt.Errorf("%w: truncated gas field", ErrOracleRequestNotFound)
	}
	r.GasForResponse = int64(binary.LittleEndian.Uint64(enc[off : off+8]))
	off += 8
	if off+4 > len(enc) {
		return nil, fmt.Errorf("%w: truncated block index", ErrOracleRequestNotFound)
	}
	r.BlockIndex = binary.LittleEndian.Uint32(enc[off : off+4])
	off += 4
	if off+2 > len(enc) {
		return nil, fmt.Errorf("%w: truncated status", ErrOracleRequestNotFound)
	}
	r.Status = OracleRequestStatus(enc[off])
	r.ResponseCode = OracleResponseCode(enc[off+1])
	off += 2
	if r.UserData, err = readBytes(); err != nil {
		return nil, err
	}
	if r.Result, err = readBytes(); err != nil {
		return nil, err
	}
	return r, nil
}

// request registers a new pending request on behalf of the calling script
// and returns its id. This handler does not charge OracleRequestPrice to the
// requester, and the ledger's pipeline does not charge it either.
func (o *OracleContract) request(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	url, _ := args[0].(string)
	filter, _ := args[1].(string)
	callback, _ := args[2].(string)
	userData, _ := args[3].([]byte)
	gasForResponse, _ := args[4].(int64)

	if len(url) > maxURLLength || len(filter) > maxFilterLength ||
		len(callback) > maxCallbackLength || len(userData) > maxUserDataLength {
		return nil, ErrOracleRequestTooLarge
	}

	var requester util.Uint160
	if ctx := e.CurrentContext(); ctx != nil {
		requester = ctx.ScriptHash
	}

	id := o.nextRequestID(e)
	rec := &OracleRequest{
		ID:                 id,
		RequestingContract: requester,
		URL:                url,
		Filter:             filter,
		Callback:           callback,
		UserData:           userData,
		GasForResponse:     gasForResponse,
		BlockIndex:         e.PersistingIndex(),
		Status:             OracleStatusPending,
	}
	snapshotOf(e).Put(requestKey(id), encodeOracleRequest(rec))

	e.Notifications = append(e.Notifications, vm.NotifyEvent{
		ScriptHash: oracleHash,
		EventName:  "OracleRequest",
		State: stackitem.NewArray([]stackitem.Item{
			stackitem.NewIntegerFromInt64(int64(id)),
			stackitem.NewByteString(requester.BytesLE()),
			stackitem.NewByteString([]byte(url)),
		}),
	})
	return int64(id), nil
}

func (o *OracleContract) getPrice(_ Contract, _ *vm.ApplicationEngine, _ []any) (any, error) {
	return int64(OracleRequestPrice), nil
}

func (o *OracleContract) getRequest(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	id, ok := args[0].(int64)
	if !ok || id < 0 {
		return nil, fmt.Errorf("getRequest: expected request id argument")
	}
	enc, ok := snapshotOf(e).Get(requestKey(uint64(id)))
	if !ok {
		return nil, nil
	}
	return decodeOracleRequest(uint64(id), enc)
}

// isOracleNode reports whether pub is currently designated under RoleOracle,
// consulting RoleManagement through the shared registry.
func (o *OracleContract) isOracleNode(e *vm.ApplicationEngine, pub []byte) bool {
	if o.registry == nil {
		return false
	}
	roleContract, ok := o.registry.ByID(roleID)
	if !ok {
		return false
	}
	designated, err := Invoke(roleContract, e, "getDesignatedByRole", []any{int64(RoleOracle), int64(e.PersistingIndex())})
	if err != nil {
		return false
	}
	list, ok := designated.([][]byte)
	if !ok {
		return false
	}
	for _, d := range list {
		if string(d) == string(pub) {
			return true
		}
	}
	return false
}

// finish resolves a pending request with a response code and result,
// callable only by a node currently designated under RoleOracle. It does
// not itself invoke the requester's callback; that requires the same
// stored-script invocation path noted as a pending TODO on ContractManagement
// and the NEP-17 payment queue.
func (o *OracleContract) finish(_ Contract, e *vm.ApplicationEngine, args []any) (any, error) {
	id, ok := args[0].(int64)
	if !ok || id < 0 {
		return nil, fmt.Errorf("finish: expected request id argument")
	}
	code, ok := args[1].(int64)
	if !ok {
		return nil, fmt.Errorf("finish: expected response code argument")
	}
	result, _ := args[2].([]byte)
	signerPub, ok := args[3].([]byte)
	if !ok {
		return nil, fmt.Errorf("finish: expected signer public key argument")
	}
	if !o.isOracleNode(e, signerPub) {
		return nil, ErrOracleNotAuthorized
	}

	snap := snapshotOf(e)
	key := requestKey(uint64(id))
	enc, ok := snap.Get(key)
	if !ok {
		return nil, ErrOracleRequestNotFound
	}
	rec, err := decodeOracleRequest(uint64(id), enc)
	if err != nil {
		return nil, err
	}
	if rec.Status != OracleStatusPending {
		return nil, ErrOracleAlreadyResolved
	}

	rec.ResponseCode = OracleResponseCode(code)
	rec.Result = result
	if rec.ResponseCode == OracleCodeSuccess {
		rec.Status = OracleStatusFulfilled
	} else {
		rec.Status = OracleStatusRejected
	}
	snap.Put(key, encodeOracleRequest(rec))

	e.Notifications = append(e.Notifications, vm.NotifyEvent{
		ScriptHash: oracleHash,
		EventName:  "OracleResponse",
		State: stackitem.NewArray([]stackitem.Item{
			stackitem.NewIntegerFromInt64(id),
			stackitem.NewIntegerFromInt64(int64(rec.ResponseCode)),
		}),
	})

	if rec.Status == OracleStatusFulfilled {
		e.EnqueueOnPayment(func(*vm.ApplicationEngine) error { return nil })
	}
	return true, nil
}

// verify checks a node's signature over an arbitrary message using the
// secp256r1 verification shared by the rest of the core, a building block
// oracle clients use to check a node's attestation independent of `finish`.
func (o *OracleContract) verify(_ Contract, _ *vm.ApplicationEngine, args []any) (any, error) {
	msg, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("verify: expected message argument")
	}
	pubBytes, ok := args[1].([]byte)
	if !ok {
		return nil, fmt.Errorf("verify: expected public key argument")
	}
	sig, ok := args[2].([]byte)
	if !ok {
		return nil, fmt.Errorf("verify: expected signature argument")
	}
	pub, err := keys.PublicKeyFromBytes(pubBytes)
	if err != nil {
		return false, nil
	}
	return keys.Verify(pub, msg, sig), nil
}
