// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metavault

import (
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/metavault/access"
	"github.com/blinklabs-io/metavault/database"
	"github.com/blinklabs-io/metavault/database/models"
	"github.com/blinklabs-io/metavault/loot"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrOwnerMismatch = errors.New("database was deployed by a different owner")

// Addresses holds the contract identities derived from the owner
type Addresses struct {
	Token       common.Address `json:"token"`
	Collectible common.Address `json:"collectible"`
	Items       common.Address `json:"items"`
	Distributor common.Address `json:"distributor"`
	Vault       common.Address `json:"vault"`
}

// ContractAddresses derives each contract address from the owner and its
// position in the deployment order
func ContractAddresses(owner common.Address) Addresses {
	return Addresses{
		Token:       crypto.CreateAddress(owner, 0),
		Collectible: crypto.CreateAddress(owner, 1),
		Items:       crypto.CreateAddress(owner, 2),
		Distributor: crypto.CreateAddress(owner, 3),
		Vault:       crypto.CreateAddress(owner, 4),
	}
}

type deployment struct {
	Owner     common.Address
	Addresses Addresses
	Supply    string
	Price     string
}

// deploy initializes a fresh database, or checks an existing deployment
// against the configuration
func (n *Node) deploy(ctx context.Context) error {
	existing, err := n.db.Deployment(nil)
	if err != nil {
		return fmt.Errorf("read deployment: %w", err)
	}
	if existing != nil {
		return n.checkDeployment(existing)
	}
	owner := n.config.owner
	now := n.config.clock.Now()
	op := database.Operation{Name: "deploy", Caller: owner, Timestamp: now.Unix()}
	err = n.db.Apply(op, nil, func(txn *database.Txn) (any, error) {
		addrs := n.addresses
		grants := []struct {
			contract common.Address
			roles    []common.Hash
			account  common.Address
		}{
			{addrs.Token, []common.Hash{access.AdminRole, access.MinterRole, access.PauserRole}, owner},
			{addrs.Collectible, []common.Hash{access.AdminRole, access.MinterRole, access.PauserRole}, owner},
			{addrs.Items, []common.Hash{access.AdminRole, access.MinterRole, access.PauserRole}, owner},
			{addrs.Distributor, []common.Hash{access.AdminRole, access.MinterRole, access.PauserRole}, owner},
			{addrs.Vault, []common.Hash{access.AdminRole}, owner},
			{addrs.Token, []common.Hash{access.MinterRole}, addrs.Vault},
			{addrs.Items, []common.Hash{access.MinterRole}, addrs.Distributor},
		}
		for _, grant := range grants {
			for _, role := range grant.roles {
				if err := n.registry.Setup(grant.contract, role, grant.account, txn); err != nil {
					return nil, fmt.Errorf("grant %s: %w", access.RoleName(role), err)
				}
			}
		}
		if !n.config.initialSupply.IsZero() {
			if err := n.token.Mint(ctx, owner, owner, n.config.initialSupply, txn); err != nil {
				return nil, fmt.Errorf("mint initial supply: %w", err)
			}
		}
		if err := n.distributor.Initialize(n.config.cratePrice, n.config.categories, txn); err != nil {
			return nil, fmt.Errorf("initialize distributor: %w", err)
		}
		if err := n.collectible.Initialize(n.config.baseURI, txn); err != nil {
			return nil, fmt.Errorf("initialize collectible: %w", err)
		}
		if err := n.db.SetDeployment(&models.Deployment{
			Owner:      owner.Bytes(),
			DeployedAt: now.Unix(),
		}, txn); err != nil {
			return nil, err
		}
		return deployment{
			Owner:     owner,
			Addresses: addrs,
			Supply:    n.config.initialSupply.Dec(),
			Price:     n.config.cratePrice.Dec(),
		}, nil
	})
	if err != nil {
		return fmt.Errorf("deploy: %w", err)
	}
	n.config.logger.Info(
		"deployed contracts",
		"component", "node",
		"owner", owner.Hex(),
		"token", n.addresses.Token.Hex(),
		"collectible", n.addresses.Collectible.Hex(),
		"items", n.addresses.Items.Hex(),
		"distributor", n.addresses.Distributor.Hex(),
		"vault", n.addresses.Vault.Hex(),
	)
	return nil
}

func (n *Node) checkDeployment(existing *models.Deployment) error {
	deployedBy := common.BytesToAddress(existing.Owner)
	if deployedBy != n.config.owner {
		return fmt.Errorf(
			"%w: deployed by %s, configured %s",
			ErrOwnerMismatch,
			deployedBy.Hex(),
			n.config.owner.Hex(),
		)
	}
	// Loot configuration is fixed at deployment
	price, err := n.distributor.Price(nil)
	if err != nil {
		return err
	}
	if !price.Eq(n.config.cratePrice) {
		n.config.logger.Warn(
			"ignoring configured crate price, the deployed price is immutable",
			"component", "node",
			"deployed", price.Dec(),
			"configured", n.config.cratePrice.Dec(),
		)
	}
	statuses, err := n.distributor.Categories(nil)
	if err != nil {
		return err
	}
	if !sameCategories(statuses, n.config.categories) {
		n.config.logger.Warn(
			"ignoring configured loot categories, the deployed categories are immutable",
			"component", "node",
		)
	}
	n.config.logger.Debug(
		"using existing deployment",
		"component", "node",
		"owner", deployedBy.Hex(),
		"deployed_at", existing.DeployedAt,
	)
	return nil
}

func sameCategories(statuses []loot.CategoryStatus, categories []loot.Category) bool {
	if len(statuses) != len(categories) {
		return false
	}
	for idx, st := range statuses {
		if st.Category != categories[idx] {
			return false
		}
	}
	return true
}
